package transport

import (
	"buddy-chat/contract"
	"buddy-chat/domain"
	"buddy-chat/errors"
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const disconnectTimeout = 2 * time.Second

// Handler upgrades HTTP requests to websockets and turns inbound frames into orchestrator calls.
type Handler struct {
	log          *slog.Logger
	orchestrator contract.IOrchestrator
	codec        *Codec
	upgrader     websocket.Upgrader
	sendBuffer   int
}

func NewHandler(log *slog.Logger, orchestrator contract.IOrchestrator, sendBuffer, maxNameLength int) *Handler {
	return &Handler{
		log:          log,
		orchestrator: orchestrator,
		codec:        NewCodec(maxNameLength),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
	}
}

func (h *Handler) HandleWS(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Info("Upgrade websocket failed", "error", err)
		return
	}

	id := domain.ConnectionID(uuid.NewString())
	conn := NewConn(id, ws, h.sendBuffer, h.log)
	log := h.log.With("conn_id", id)
	go conn.WritePump()
	defer conn.Close()

	h.orchestrator.Connect(id, conn)
	log.Debug("Connection opened", "remote", c.Request.RemoteAddr)

	h.readLoop(c.Request.Context(), log, id, ws)

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := h.orchestrator.Disconnect(ctx, id); err != nil {
		log.Warn("Disconnect not applied", "error", err)
	}
}

func (h *Handler) readLoop(ctx context.Context, log *slog.Logger, id domain.ConnectionID, ws *websocket.Conn) {
	ws.SetReadLimit(maxFrameLength)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	registered := false
	for {
		mt, raw, err := ws.ReadMessage()
		if err != nil {
			logReadError(log, err)
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, err := h.codec.DecodeFrame(raw)
		if err != nil {
			sample := raw
			if len(sample) > 256 {
				sample = sample[:256]
			}
			log.Info("Malformed frame ignored", "error", err, "sample", string(sample))
			continue
		}

		if frame.Event == EventInit {
			if registered {
				log.Info("Second init ignored")
				continue
			}
			name, err := h.codec.DecodeInit(frame)
			if err != nil {
				log.Info("Invalid init ignored", "error", err)
				continue
			}
			if _, err = h.orchestrator.Register(ctx, id, name); err != nil {
				log.Warn("Registration failed", "error", err)
				if stderrors.Is(err, errors.ErrOrchestratorStopped) || ctx.Err() != nil {
					return
				}
				continue
			}
			registered = true
			continue
		}

		cmd, err := h.codec.DecodeCommand(id, frame)
		if err != nil {
			log.Info("Frame ignored", "event", frame.Event, "error", err)
			continue
		}
		if err = h.orchestrator.Dispatch(ctx, cmd); err != nil {
			log.Warn("Command not dispatched", "event", frame.Event, "error", err)
			return
		}
	}
}

func logReadError(log *slog.Logger, err error) {
	var ne net.Error
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		log.Debug("Peer closed", "error", err)
	case stderrors.As(err, &ne) && ne.Timeout():
		log.Info("Read timeout", "error", err)
	default:
		log.Info("Read error", "error", err)
	}
}

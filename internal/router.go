package internal

import (
	"buddy-chat/repositories"
	"buddy-chat/session"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

//go:embed web/*
var webFS embed.FS

const maxPageLimit = 500

type Snapshotter interface {
	Snapshot() session.Snapshot
}

// PairingView is the JSON shape of a journal entry.
type PairingView struct {
	ID              string     `json:"id"`
	Members         [2]string  `json:"members"`
	Names           [2]string  `json:"names"`
	FormedAt        time.Time  `json:"formed_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	LeftBy          string     `json:"left_by,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`
}

type PairingPage struct {
	Pairings   []PairingView `json:"pairings"`
	NextCursor *string       `json:"next_cursor"`
}

// NewRouter serves the websocket endpoint, the chat page and the operational endpoints.
func NewRouter(log *slog.Logger, ws gin.HandlerFunc, state Snapshotter,
	journal repositories.IPairingRepository, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	inspect := template.Must(template.ParseFS(webFS, "web/inspect.html"))
	r.SetHTMLTemplate(inspect)

	r.GET("/", func(c *gin.Context) {
		c.FileFromFS("web/", http.FS(webFS))
	})
	r.GET("/ws", ws)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, state.Snapshot())
	})
	r.GET("/pairings", func(c *gin.Context) {
		page, ok := listPairings(c, log, journal)
		if ok {
			c.JSON(http.StatusOK, page)
		}
	})
	r.GET("/inspect", func(c *gin.Context) {
		page, ok := listPairings(c, log, journal)
		if ok {
			c.HTML(http.StatusOK, "inspect.html", gin.H{"Page": page, "State": state.Snapshot()})
		}
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return r
}

func listPairings(c *gin.Context, log *slog.Logger, journal repositories.IPairingRepository) (PairingPage, bool) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return PairingPage{}, false
		}
		limit = min(parsed, maxPageLimit)
	}
	var cursor *string
	if raw := c.Query("cursor"); raw != "" {
		cursor = &raw
	}

	records, next, err := journal.ListPairings(limit, cursor)
	if err != nil {
		log.Error("Listing pairings failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "journal unavailable"})
		return PairingPage{}, false
	}
	return PairingPage{
		Pairings:   lo.Map(records, func(r repositories.PairingRecord, _ int) PairingView { return toPairingView(r) }),
		NextCursor: next,
	}, true
}

func toPairingView(r repositories.PairingRecord) PairingView {
	view := PairingView{
		ID:       r.ID.String(),
		Members:  [2]string{r.Members[0].String(), r.Members[1].String()},
		Names:    r.Names,
		FormedAt: r.FormedAt,
		LeftBy:   r.LeftBy.String(),
	}
	if r.Ended() {
		view.EndedAt = lo.ToPtr(r.EndedAt)
		view.DurationSeconds = r.Duration().Seconds()
	}
	return view
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

package transport

import (
	"buddy-chat/domain"
	"buddy-chat/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodec_DecodeInit(t *testing.T) {
	codec := NewCodec(8)
	tests := []struct {
		name    string
		raw     string
		want    string
		invalid bool
	}{
		{name: "valid", raw: `{"event":"init","data":{"name":"Ann"}}`, want: "Ann"},
		{name: "runes not bytes", raw: `{"event":"init","data":{"name":"Zoë Åsa"}}`, want: "Zoë Åsa"},
		{name: "empty name", raw: `{"event":"init","data":{"name":""}}`, invalid: true},
		{name: "too long", raw: `{"event":"init","data":{"name":"` + strings.Repeat("a", 9) + `"}}`, invalid: true},
		{name: "no data", raw: `{"event":"init"}`, invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			frame, err := codec.DecodeFrame([]byte(tt.raw))
			req.NoError(err)

			name, err := codec.DecodeInit(frame)

			if tt.invalid {
				req.ErrorIs(err, errors.ErrInvalidFrame)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, name)
		})
	}
}

func TestCodec_DecodeFrame_Rejects_Garbage(t *testing.T) {
	req := require.New(t)
	codec := NewCodec(64)

	_, err := codec.DecodeFrame([]byte(`not json`))
	req.ErrorIs(err, errors.ErrInvalidFrame)

	_, err = codec.DecodeFrame([]byte(`{"data":{}}`))
	req.ErrorIs(err, errors.ErrInvalidFrame)
}

func TestCodec_DecodeCommand(t *testing.T) {
	codec := NewCodec(64)
	tests := []struct {
		name string
		raw  string
		want domain.Command
		err  error
	}{
		{name: "chat add", raw: `{"event":"chat-add","data":{"payload":"h"}}`, want: domain.ChatAddCommand{Conn: "c", Payload: "h"}},
		{name: "chat add keeps whitespace", raw: `{"event":"chat-add","data":{"payload":" "}}`, want: domain.ChatAddCommand{Conn: "c", Payload: " "}},
		{name: "empty payload", raw: `{"event":"chat-add","data":{"payload":""}}`, err: errors.ErrInvalidFrame},
		{name: "delete count", raw: `{"event":"chat-delete","data":{"count":3}}`, want: domain.ChatDeleteCommand{Conn: "c", Count: 3}},
		{name: "delete without data", raw: `{"event":"chat-delete"}`, want: domain.ChatDeleteCommand{Conn: "c", Count: 1}},
		{name: "delete zero", raw: `{"event":"chat-delete","data":{"count":0}}`, want: domain.ChatDeleteCommand{Conn: "c", Count: 1}},
		{name: "delete too many", raw: `{"event":"chat-delete","data":{"count":5000}}`, err: errors.ErrInvalidFrame},
		{name: "delete negative", raw: `{"event":"chat-delete","data":{"count":-1}}`, err: errors.ErrInvalidFrame},
		{name: "unknown", raw: `{"event":"shout","data":{}}`, err: errors.ErrUnknownEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			frame, err := codec.DecodeFrame([]byte(tt.raw))
			req.NoError(err)

			cmd, err := codec.DecodeCommand("c", frame)

			if tt.err != nil {
				req.ErrorIs(err, tt.err)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, cmd)
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		n    domain.Notification
		want string
	}{
		{domain.NewRegistered("a", ""), `{"event":"registered","data":{"buddy":null}}`},
		{domain.NewRegistered("a", "Bo"), `{"event":"registered","data":{"buddy":"Bo"}}`},
		{domain.NewBuddyAssigned("a", "Bo"), `{"event":"buddy-assigned","data":{"name":"Bo"}}`},
		{domain.NewBuddyLeft("a"), `{"event":"buddy-left","data":{}}`},
		{domain.NewChatAdd("a", "x"), `{"event":"chat-add","data":{"payload":"x"}}`},
		{domain.NewChatDelete("a", 2), `{"event":"chat-delete","data":{"count":2}}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.n.Kind), func(t *testing.T) {
			req := require.New(t)
			raw, err := Encode(tt.n)
			req.NoError(err)
			req.JSONEq(tt.want, string(raw))
		})
	}
}

func TestEncode_Unknown_Kind(t *testing.T) {
	_, err := Encode(domain.Notification{Kind: "shout"})
	require.ErrorIs(t, err, errors.ErrUnknownEvent)
}

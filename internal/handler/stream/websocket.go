package stream

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dalio-ai/dalio/backend/internal/model/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

type wsRelay struct {
	runner   ChatRunner
	upgrader websocket.Upgrader
}

func newWSRelay(runner ChatRunner) *wsRelay {
	return &wsRelay{
		runner: runner,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// handleWebSocket reads {messages} frames and answers each with the same
// event frames the SSE endpoint produces. Turns run one at a time.
func (h *wsRelay) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxRequestBytes)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	emit := func(ev chat.Event) error {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteJSON(ev)
	}

	for {
		var req chat.Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		if len(req.Messages) == 0 {
			if err := emit(chat.Event{Type: chat.EventError, Error: "messages are required"}); err != nil {
				return
			}
			continue
		}

		if err := h.runner.RunChat(ctx, req.Messages, emit); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("[websocket] chat turn failed: %v", err)
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

func (h *wsRelay) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

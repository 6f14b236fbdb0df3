package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dalio-ai/dalio/backend/internal/model/chat"
)

// ErrStreamEnded is returned when the server closes a stream before a
// finish or error event.
var ErrStreamEnded = errors.New("stream ended before finish")

// Handler receives every event of a turn.
type Handler func(chat.Event) error

// Client talks to the Dalio API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates an API client for baseURL, e.g. http://localhost:8080.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Stream posts the transcript to /api/chat and feeds each SSE frame to fn.
func (c *Client) Stream(ctx context.Context, messages []chat.Message, fn Handler) error {
	body, err := json.Marshal(chat.Request{Messages: messages})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return ReadSSE(resp.Body, fn)
}

// ReadSSE decodes "data:" frames until a terminal event or EOF.
func ReadSSE(r io.Reader, fn Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	for scanner.Scan() {
		line := scanner.Text()
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		var ev chat.Event
		if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &ev); err != nil {
			return fmt.Errorf("invalid event frame: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
		if terminal(ev) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return ErrStreamEnded
}

// Session is a WebSocket connection that can carry many turns.
type Session struct {
	conn *websocket.Conn
}

// Dial opens /api/chat/ws.
func (c *Client) Dial(ctx context.Context) (*Session, error) {
	u, err := url.Parse(c.baseURL + "/api/chat/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	c.authorize(header)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return &Session{conn: conn}, nil
}

// Send writes one turn and feeds events to fn until the turn ends.
func (s *Session) Send(messages []chat.Message, fn Handler) error {
	if err := s.conn.WriteJSON(chat.Request{Messages: messages}); err != nil {
		return fmt.Errorf("websocket write failed: %w", err)
	}
	for {
		var ev chat.Event
		if err := s.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrStreamEnded
			}
			return fmt.Errorf("websocket read failed: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
		if terminal(ev) {
			return nil
		}
	}
}

// Close sends a close frame and closes the connection.
func (s *Session) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

func (c *Client) authorize(h http.Header) {
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
}

func terminal(ev chat.Event) bool {
	return ev.Type == chat.EventFinish || ev.Type == chat.EventError
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("api error %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("api error %d", resp.StatusCode)
}

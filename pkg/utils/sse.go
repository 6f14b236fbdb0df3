package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SendSSEChunk writes payload as a single "data:" frame and flushes it.
func SendSSEChunk(w http.ResponseWriter, flusher http.Flusher, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write sse frame: %w", err)
	}
	flusher.Flush()
	return nil
}

// SetupSSEHeaders prepares w for a Server-Sent Events stream.
func SetupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// StartSSE writes the stream headers and a 200 status, returning a sender
// for data frames. It reports false when w cannot flush.
func StartSSE(w http.ResponseWriter) (func(payload interface{}) error, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}

	SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return func(payload interface{}) error {
		return SendSSEChunk(w, flusher, payload)
	}, true
}

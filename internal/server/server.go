// Package server exposes a Session over HTTP. The request body is the user
// message; the response body is the answer.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/comigor/chatline/internal/history"
	"github.com/comigor/chatline/internal/logger"
)

// Chatter is the part of agent.Session the handlers need.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
	ChatStreamTo(ctx context.Context, sink io.Writer, message string) (string, error)
	History() ([]history.Item, error)
	ClearHistory() error
}

// NewMux routes:
//
//	POST   /         buffered exchange
//	POST   /stream   streamed exchange, chunked
//	GET    /history  committed turns as JSON
//	DELETE /history  clear history
func NewMux(c Chatter) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /{$}", func(w http.ResponseWriter, r *http.Request) {
		message, ok := readMessage(w, r)
		if !ok {
			return
		}
		response, err := c.Chat(r.Context(), message)
		if err != nil {
			logger.L.Error("process error", "err", err, "body", message)
			http.Error(w, "failed to process request", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, response)
	})

	mux.HandleFunc("POST /stream", func(w http.ResponseWriter, r *http.Request) {
		message, ok := readMessage(w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		sw := &streamWriter{w: w, rc: http.NewResponseController(w)}
		if _, err := c.ChatStreamTo(r.Context(), sw, message); err != nil {
			logger.L.Error("stream process error", "err", err, "body", message)
			if !sw.wrote {
				http.Error(w, "failed to process request", http.StatusBadGateway)
				return
			}
			// Part of the answer is already on the wire; cut the connection
			// so the client cannot take it for a complete answer.
			panic(http.ErrAbortHandler)
		}
	})

	mux.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		items, err := c.History()
		if err != nil {
			logger.L.Error("history error", "err", err)
			http.Error(w, "failed to read history", http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = []history.Item{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	})

	mux.HandleFunc("DELETE /history", func(w http.ResponseWriter, r *http.Request) {
		if err := c.ClearHistory(); err != nil {
			logger.L.Error("clear history error", "err", err)
			http.Error(w, "failed to clear history", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

// streamWriter flushes every fragment to the client.
type streamWriter struct {
	w     http.ResponseWriter
	rc    *http.ResponseController
	wrote bool
}

func (s *streamWriter) Write(p []byte) (int, error) {
	s.wrote = true
	return s.w.Write(p)
}

func (s *streamWriter) Flush() error {
	return s.rc.Flush()
}

func readMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.L.Error("read body error", "err", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return "", false
	}
	if len(body) == 0 {
		http.Error(w, "empty message", http.StatusBadRequest)
		return "", false
	}
	logger.L.Info("inference request", "body", string(body))
	return string(body), true
}

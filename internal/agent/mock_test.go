package agent

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/comigor/chatline/internal/history"
	"github.com/comigor/chatline/internal/llm"
)

// fragment is one scripted Recv result.
type fragment struct {
	text string
	err  error
}

type scriptedStream struct {
	fragments []fragment
	recvCalls int
	closed    bool
}

func script(items ...any) *scriptedStream {
	s := &scriptedStream{}
	for _, it := range items {
		switch v := it.(type) {
		case string:
			s.fragments = append(s.fragments, fragment{text: v})
		case error:
			s.fragments = append(s.fragments, fragment{err: v})
		}
	}
	return s
}

func (s *scriptedStream) Recv() (string, error) {
	s.recvCalls++
	if len(s.fragments) == 0 {
		return "", io.EOF
	}
	f := s.fragments[0]
	s.fragments = s.fragments[1:]
	return f.text, f.err
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

type mockBridge struct {
	onceFunc   func(messages []llm.Message) (string, error)
	streamFunc func(messages []llm.Message) (llm.FragmentStream, error)
	requests   [][]llm.Message
}

func (m *mockBridge) ChatOnce(_ context.Context, messages []llm.Message) (string, error) {
	m.requests = append(m.requests, messages)
	if m.onceFunc == nil {
		panic("mockBridge: no buffered response configured for: " + messages[len(messages)-1].Content)
	}
	return m.onceFunc(messages)
}

func (m *mockBridge) ChatStream(_ context.Context, messages []llm.Message) (llm.FragmentStream, error) {
	m.requests = append(m.requests, messages)
	if m.streamFunc == nil {
		panic("mockBridge: no stream configured for: " + messages[len(messages)-1].Content)
	}
	return m.streamFunc(messages)
}

// recordingSink keeps every write separately and counts flushes.
type recordingSink struct {
	writes   []string
	flushes  int
	writeErr error // returned for writes equal to failOn
	failOn   string
	flushErr error
}

func (r *recordingSink) Write(p []byte) (int, error) {
	if r.writeErr != nil && (r.failOn == "" || string(p) == r.failOn) {
		return 0, r.writeErr
	}
	r.writes = append(r.writes, string(p))
	return len(p), nil
}

func (r *recordingSink) Flush() error {
	r.flushes++
	return r.flushErr
}

func (r *recordingSink) String() string {
	return strings.Join(r.writes, "")
}

type failingHistory struct {
	appendErr error
	listErr   error
}

var errClearUnsupported = errors.New("clear unsupported")

func (f *failingHistory) Append(string, string) error    { return f.appendErr }
func (f *failingHistory) List() ([]history.Item, error) { return nil, f.listErr }
func (f *failingHistory) Clear() error                   { return errClearUnsupported }

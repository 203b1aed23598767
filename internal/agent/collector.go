package agent

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/qmuntal/stateless"

	"github.com/comigor/chatline/internal/llm"
	"github.com/comigor/chatline/internal/logger"
)

// StreamState is a state of one streaming exchange.
type StreamState string

const (
	StateIdle      StreamState = "Idle"
	StateReceiving StreamState = "Receiving"
	StateCompleted StreamState = "Completed" // Terminal: stream drained
	StateFailed    StreamState = "Failed"    // Terminal: establish, fragment or sink error
)

// StreamTrigger moves a streaming exchange between states.
type StreamTrigger string

const (
	TriggerStreamOpened     StreamTrigger = "StreamOpened"
	TriggerFragmentReceived StreamTrigger = "FragmentReceived"
	TriggerStreamExhausted  StreamTrigger = "StreamExhausted"
	TriggerErrorOccurred    StreamTrigger = "ErrorOccurred"
)

type flusher interface {
	Flush() error
}

// plainFlusher matches http.Flusher.
type plainFlusher interface {
	Flush()
}

// collectOnce performs a buffered exchange. The bridge error is returned as is.
func collectOnce(ctx context.Context, bridge llm.Bridge, messages []llm.Message) (string, error) {
	return bridge.ChatOnce(ctx, messages)
}

// streamCollector drains one FragmentStream into sink and an accumulator.
type streamCollector struct {
	fsm    *stateless.StateMachine
	sink   io.Writer
	answer strings.Builder
}

func newStreamCollector(sink io.Writer) *streamCollector {
	c := &streamCollector{
		fsm:  stateless.NewStateMachine(StateIdle),
		sink: sink,
	}

	c.fsm.Configure(StateIdle).
		Permit(TriggerStreamOpened, StateReceiving).
		Permit(TriggerErrorOccurred, StateFailed)

	c.fsm.Configure(StateReceiving).
		InternalTransition(TriggerFragmentReceived, func(_ context.Context, args ...any) error {
			return c.accept(args[0].(string))
		}).
		Permit(TriggerStreamExhausted, StateCompleted).
		Permit(TriggerErrorOccurred, StateFailed)

	// Partial answers are never returned nor committed.
	c.fsm.Configure(StateFailed).
		OnEntry(func(_ context.Context, _ ...any) error {
			c.answer.Reset()
			return nil
		})

	return c
}

// State reports where the exchange currently is.
func (c *streamCollector) State() StreamState {
	return c.fsm.MustState().(StreamState)
}

// collect opens the stream and consumes it one fragment at a time.
func (c *streamCollector) collect(ctx context.Context, bridge llm.Bridge, messages []llm.Message) (string, error) {
	stream, err := bridge.ChatStream(ctx, messages)
	if err != nil {
		return "", c.fail(ctx, err)
	}
	defer stream.Close()
	c.fire(ctx, TriggerStreamOpened)

	for {
		if err := ctx.Err(); err != nil {
			return "", c.fail(ctx, err)
		}
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", c.fail(ctx, err)
		}
		if fragment == "" {
			continue
		}
		if err := c.fsm.FireCtx(ctx, TriggerFragmentReceived, fragment); err != nil {
			return "", c.fail(ctx, err)
		}
	}

	if err := c.emit("\n"); err != nil {
		return "", c.fail(ctx, err)
	}
	answer := c.answer.String()
	c.fire(ctx, TriggerStreamExhausted)
	return answer, nil
}

func (c *streamCollector) accept(fragment string) error {
	if err := c.emit(fragment); err != nil {
		return err
	}
	c.answer.WriteString(fragment)
	return nil
}

// emit writes s to the sink and flushes it so the user sees it immediately.
func (c *streamCollector) emit(s string) error {
	if _, err := io.WriteString(c.sink, s); err != nil {
		return &IoSinkError{Err: err}
	}
	switch f := c.sink.(type) {
	case flusher:
		if err := f.Flush(); err != nil {
			return &IoSinkError{Err: err}
		}
	case plainFlusher:
		f.Flush()
	}
	return nil
}

func (c *streamCollector) fail(ctx context.Context, err error) error {
	logger.L.Debug("stream exchange failed", "state", c.State(), "error", err)
	c.fire(context.WithoutCancel(ctx), TriggerErrorOccurred)
	return err
}

func (c *streamCollector) fire(ctx context.Context, trigger StreamTrigger) {
	if err := c.fsm.FireCtx(ctx, trigger); err != nil {
		logger.L.Warn("FSM fire error", "trigger", trigger, "error", err)
	}
}

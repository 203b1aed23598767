package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/chatline/internal/config"
	"github.com/comigor/chatline/internal/logger"
)

// ErrNoChoices is returned when the service answers without any choice.
var ErrNoChoices = errors.New("response has no choices")

// NewClient creates a new OpenAI client
func NewClient(cfg config.LLMConfig) *openai.Client {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return openai.NewClientWithConfig(config)
}

// OpenAIBridge talks to an OpenAI-compatible chat completions endpoint.
type OpenAIBridge struct {
	client Client
	model  string
}

// NewBridge builds a bridge for cfg.
func NewBridge(cfg config.LLMConfig) *OpenAIBridge {
	return NewBridgeWithClient(NewClient(cfg), cfg.Model)
}

// NewBridgeWithClient wraps an existing client.
func NewBridgeWithClient(client Client, model string) *OpenAIBridge {
	return &OpenAIBridge{client: client, model: model}
}

func (b *OpenAIBridge) request(messages []Message, stream bool) openai.ChatCompletionRequest {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}
	return openai.ChatCompletionRequest{Model: b.model, Messages: out, Stream: stream}
}

// ChatOnce sends messages and returns the first choice's content.
func (b *OpenAIBridge) ChatOnce(ctx context.Context, messages []Message) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, b.request(messages, false))
	if err != nil {
		logger.L.Error("LLM call failed", "error", err)
		return "", &TransportError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &TransportError{Err: ErrNoChoices}
	}
	logger.L.Debug("LLM response received", "id", resp.ID, "usage", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

// ChatStream opens a streamed completion.
func (b *OpenAIBridge) ChatStream(ctx context.Context, messages []Message) (FragmentStream, error) {
	stream, err := b.client.CreateChatCompletionStream(ctx, b.request(messages, true))
	if err != nil {
		logger.L.Error("LLM stream failed to start", "error", err)
		return nil, &TransportError{Err: err}
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
	// finished is set once a choice carried a finish_reason.
	finished bool
}

// Recv yields the delta content of the next event. Events without choices
// (usage-only chunks) become empty fragments. go-openai reports a connection
// that drops before [DONE] as a plain io.EOF, so the end of the stream only
// counts as clean after the model said why it stopped.
func (s *openAIStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		if !s.finished {
			logger.L.Warn("LLM stream ended without a finish reason")
			return "", &StreamFragmentError{Err: io.ErrUnexpectedEOF}
		}
		return "", io.EOF
	}
	if err != nil {
		return "", &StreamFragmentError{Err: err}
	}
	var sb strings.Builder
	for _, c := range resp.Choices {
		sb.WriteString(c.Delta.Content)
		if c.FinishReason != "" {
			s.finished = true
		}
	}
	return sb.String(), nil
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

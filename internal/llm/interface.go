package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Role is the speaker of a Message.
type Role string

const (
	RoleUser      Role = openai.ChatMessageRoleUser
	RoleAssistant Role = openai.ChatMessageRoleAssistant
)

// Message is one entry of the ordered request sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Client is minimal subset of openai.Client used by the bridge; it is easy to mock in tests.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// Bridge is the transport to the remote model service.
type Bridge interface {
	// ChatOnce sends messages and waits for the complete answer.
	ChatOnce(ctx context.Context, messages []Message) (string, error)
	// ChatStream establishes a streamed answer. An error here means the
	// stream never started; failures after that come from Recv.
	ChatStream(ctx context.Context, messages []Message) (FragmentStream, error)
}

// FragmentStream is a finite, pull-based sequence of answer fragments.
// Recv returns io.EOF once the sequence is exhausted. It cannot be restarted.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}

package agent

import (
	"github.com/comigor/chatline/internal/history"
	"github.com/comigor/chatline/internal/llm"
)

// Assemble replays every committed turn as a user/assistant pair, oldest
// first, and appends message as the final user entry.
func Assemble(turns []history.Item, message string) []llm.Message {
	messages := make([]llm.Message, 0, 2*len(turns)+1)
	for _, t := range turns {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: t.Question},
			llm.Message{Role: llm.RoleAssistant, Content: t.Answer},
		)
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}

package agent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/chatline/internal/history"
	"github.com/comigor/chatline/internal/llm"
)

func TestAssemble_EmptyHistory(t *testing.T) {
	out := Assemble(nil, "hello")
	require.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "hello"}}, out)
}

func TestAssemble_ReplaysHistoryInOrder(t *testing.T) {
	turns := []history.Item{
		{Question: "prev question", Answer: "prev answer"},
		{Question: "second", Answer: "reply"},
	}
	out := Assemble(turns, "new question")

	require.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "prev question"},
		{Role: llm.RoleAssistant, Content: "prev answer"},
		{Role: llm.RoleUser, Content: "second"},
		{Role: llm.RoleAssistant, Content: "reply"},
		{Role: llm.RoleUser, Content: "new question"},
	}, out)
}

func TestAssemble_ShapeForAnyLength(t *testing.T) {
	for n := 0; n <= 6; n++ {
		t.Run(fmt.Sprintf("turns=%d", n), func(t *testing.T) {
			turns := make([]history.Item, n)
			for i := range turns {
				turns[i] = history.Item{Question: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)}
			}
			out := Assemble(turns, "m")

			require.Len(t, out, 2*n+1)
			for i, msg := range out[:2*n] {
				if i%2 == 0 {
					require.Equal(t, llm.RoleUser, msg.Role)
					require.Equal(t, turns[i/2].Question, msg.Content)
				} else {
					require.Equal(t, llm.RoleAssistant, msg.Role)
					require.Equal(t, turns[i/2].Answer, msg.Content)
				}
			}
			require.Equal(t, llm.Message{Role: llm.RoleUser, Content: "m"}, out[2*n])
		})
	}
}

func TestAssemble_DuplicatesAreKept(t *testing.T) {
	turns := []history.Item{{Question: "same", Answer: "same"}, {Question: "same", Answer: "same"}}
	require.Len(t, Assemble(turns, "same"), 5)
}

func TestAssemble_IsPure(t *testing.T) {
	turns := []history.Item{{Question: "q", Answer: "a"}}
	first := Assemble(turns, "m")
	second := Assemble(turns, "m")

	require.Equal(t, first, second)
	require.Equal(t, []history.Item{{Question: "q", Answer: "a"}}, turns)
}

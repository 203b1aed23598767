package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetLevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetLevel("info")
		SetOutput(os.Stderr)
	})

	SetLevel("warn")
	L.Info("hidden")
	L.Warn("shown", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "shown", rec["msg"])
	require.Equal(t, "v", rec["k"])
}

func TestSetLevelUnknownFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetLevel("info")
		SetOutput(os.Stderr)
	})

	SetLevel("verbose")
	L.Debug("hidden")
	require.Zero(t, buf.Len())
	L.Info("shown")
	require.NotZero(t, buf.Len())
}

func TestSetOutputWhileLogging(t *testing.T) {
	var first, second bytes.Buffer
	SetOutput(&first)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	const workers, records = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < records; j++ {
				L.Info("tick", "n", j)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			SetOutput(&second)
		} else {
			SetOutput(&first)
		}
	}
	wg.Wait()
	SetOutput(os.Stderr)

	lines := strings.Count(first.String(), "\n") + strings.Count(second.String(), "\n")
	require.Equal(t, workers*records, lines, "every record lands whole in one of the buffers")
}

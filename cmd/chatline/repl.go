package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"

	"github.com/comigor/chatline/internal/config"
	"github.com/comigor/chatline/internal/history"
)

const helpText = `commands:
  /help              show this help
  /history           print the conversation so far
  /clear             forget the conversation
  /model <name>      switch model (saved to config)
  /stream on|off     toggle streamed answers (saved to config)
  /config            show endpoint and model
  /quit              leave
anything else is sent to the model`

// shell is what the REPL needs from agent.Session.
type shell interface {
	Chat(ctx context.Context, message string) (string, error)
	ChatStream(ctx context.Context, message string) (string, error)
	History() ([]history.Item, error)
	ClearHistory() error
	Config() config.Config
	UpdateConfig(cfg config.Config) error
}

func repl(sh shell, out *bufio.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "bye",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Ctrl-C abandons the running exchange only.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		quit, err := handle(ctx, sh, out, line)
		stop()
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// handle runs one REPL line and reports whether the user asked to quit.
func handle(ctx context.Context, sh shell, out *bufio.Writer, line string) (bool, error) {
	defer out.Flush()

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, helpText)
		return false, nil
	case "/clear":
		if err := sh.ClearHistory(); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "history cleared")
		return false, nil
	case "/history":
		items, err := sh.History()
		if err != nil {
			return false, err
		}
		for i, it := range items {
			fmt.Fprintf(out, "[%d] you: %s\n[%d] model: %s\n", i+1, it.Question, i+1, it.Answer)
		}
		return false, nil
	case "/config":
		cfg := sh.Config()
		fmt.Fprintf(out, "base_url: %s\nmodel: %s\nstream: %t\n", cfg.LLM.BaseURL, cfg.LLM.Model, cfg.Stream)
		return false, nil
	case "/model":
		if arg == "" {
			return false, errors.New("usage: /model <name>")
		}
		cfg := sh.Config()
		cfg.LLM.Model = arg
		if err := sh.UpdateConfig(cfg); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "model set to %s\n", arg)
		return false, nil
	case "/stream":
		cfg := sh.Config()
		switch arg {
		case "on":
			cfg.Stream = true
		case "off":
			cfg.Stream = false
		default:
			return false, errors.New("usage: /stream on|off")
		}
		if err := sh.UpdateConfig(cfg); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "streaming %s\n", arg)
		return false, nil
	}

	if strings.HasPrefix(cmd, "/") {
		return false, fmt.Errorf("unknown command %s, try /help", cmd)
	}

	if sh.Config().Stream {
		if _, err := sh.ChatStream(ctx, line); err != nil {
			// Whatever was streamed stays on screen; end its line.
			fmt.Fprintln(out)
			return false, err
		}
		return false, nil
	}
	answer, err := sh.Chat(ctx, line)
	if err != nil {
		return false, err
	}
	fmt.Fprintln(out, answer)
	return false, nil
}

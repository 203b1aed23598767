package agent

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/comigor/chatline/internal/config"
	"github.com/comigor/chatline/internal/history"
	"github.com/comigor/chatline/internal/llm"
	"github.com/comigor/chatline/internal/logger"
)

// History is the turn log a Session commits to.
type History interface {
	Append(question, answer string) error
	List() ([]history.Item, error)
	Clear() error
}

// BridgeFactory builds a bridge for the given endpoint settings.
type BridgeFactory func(cfg config.LLMConfig) llm.Bridge

// Options configures a Session. Zero values pick the defaults.
type Options struct {
	ConfigPath string        // defaults to config.Path()
	History    History       // defaults to an in-memory store
	NewBridge  BridgeFactory // defaults to the OpenAI bridge
	Output     io.Writer     // defaults to os.Stdout
}

// Session owns one conversation: its config, its bridge and its history.
// Exchanges are serialized; a reconfiguration waits for the running exchange.
type Session struct {
	mu         sync.Mutex
	cfg        config.Config
	configPath string
	bridge     llm.Bridge
	newBridge  BridgeFactory
	history    History
	out        io.Writer
}

// New creates a session for cfg.
func New(cfg config.Config, opts Options) *Session {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.Path()
	}
	if opts.History == nil {
		opts.History = history.NewMemory()
	}
	if opts.NewBridge == nil {
		opts.NewBridge = func(c config.LLMConfig) llm.Bridge { return llm.NewBridge(c) }
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Session{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		bridge:     opts.NewBridge(cfg.LLM),
		newBridge:  opts.NewBridge,
		history:    opts.History,
		out:        opts.Output,
	}
}

// Chat performs a buffered exchange and commits it on success.
func (s *Session) Chat(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.assemble(message)
	if err != nil {
		return "", err
	}
	answer, err := collectOnce(ctx, s.bridge, messages)
	if err != nil {
		logger.L.Error("chat exchange failed", "error", err)
		return "", err
	}
	if err := s.commit(message, answer); err != nil {
		return "", err
	}
	return answer, nil
}

// ChatStream performs a streaming exchange, writing fragments to the
// session output as they arrive.
func (s *Session) ChatStream(ctx context.Context, message string) (string, error) {
	return s.ChatStreamTo(ctx, s.out, message)
}

// ChatStreamTo is ChatStream with an explicit sink. Output already written
// when an error occurs stays written; history is only touched on success.
func (s *Session) ChatStreamTo(ctx context.Context, sink io.Writer, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.assemble(message)
	if err != nil {
		return "", err
	}
	answer, err := newStreamCollector(sink).collect(ctx, s.bridge, messages)
	if err != nil {
		logger.L.Error("stream exchange failed", "error", err)
		return "", err
	}
	if err := s.commit(message, answer); err != nil {
		return "", err
	}
	return answer, nil
}

func (s *Session) assemble(message string) ([]llm.Message, error) {
	turns, err := s.history.List()
	if err != nil {
		return nil, err
	}
	messages := Assemble(turns, message)
	logger.L.Debug("request assembled", "turns", len(turns), "messages", len(messages))
	return messages, nil
}

func (s *Session) commit(question, answer string) error {
	if err := s.history.Append(question, answer); err != nil {
		logger.L.Error("failed to commit turn", "error", err)
		return err
	}
	return nil
}

// History returns the committed turns, oldest first.
func (s *Session) History() ([]history.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.List()
}

// ClearHistory forgets every committed turn.
func (s *Session) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Clear()
}

// Config returns a copy of the current configuration.
func (s *Session) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// UpdateConfig saves cfg and then switches the session to it. When saving
// fails nothing changes.
func (s *Session) UpdateConfig(cfg config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := config.Save(s.configPath, &cfg); err != nil {
		return err
	}
	s.apply(cfg)
	return nil
}

// Apply switches the session to cfg without saving it, e.g. after the
// config file was edited on disk. History is kept. A cfg equal to the
// current one is ignored, so the reload that follows UpdateConfig's own
// write does not rebuild the bridge again.
func (s *Session) Apply(cfg config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.cfg {
		logger.L.Debug("config reload unchanged")
		return
	}
	s.apply(cfg)
}

func (s *Session) apply(cfg config.Config) {
	s.cfg = cfg
	s.bridge = s.newBridge(cfg.LLM)
	logger.SetLevel(cfg.LogLevel)
	logger.L.Info("session reconfigured", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)
}

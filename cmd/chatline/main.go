package main

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/comigor/chatline/internal/agent"
	"github.com/comigor/chatline/internal/config"
	"github.com/comigor/chatline/internal/history"
	"github.com/comigor/chatline/internal/logger"
	"github.com/comigor/chatline/internal/server"
)

func main() {
	if err := run(); err != nil {
		logger.L.Error("chatline exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	path := config.Path()
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.EnsureSessionID() {
		if err := config.Save(path, cfg); err != nil {
			logger.L.Warn("could not persist session id; history will not survive a restart", "error", err)
		}
	}

	store, err := history.Open(cfg.History.Path, cfg.History.SessionID)
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		store = history.NewMemory()
	}
	defer store.Close()

	out := bufio.NewWriter(os.Stdout)
	session := agent.New(*cfg, agent.Options{
		ConfigPath: path,
		History:    store,
		Output:     out,
	})

	config.Watch(path,
		func(c *config.Config) { session.Apply(*c) },
		func(err error) { logger.L.Warn("config reload skipped", "error", err) },
	)

	if cfg.Server.Port != "" {
		serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.L.Info("starting server", "address", serverAddr)
		if err := http.ListenAndServe(serverAddr, server.NewMux(session)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	return repl(session, out)
}

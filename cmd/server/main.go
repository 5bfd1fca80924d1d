// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/gambit-live/gambit/internal/config"
	"github.com/gambit-live/gambit/internal/handlers"
	"github.com/gambit-live/gambit/internal/history"
	"github.com/gambit-live/gambit/internal/hub"
	"github.com/gambit-live/gambit/internal/middleware"
	"github.com/gambit-live/gambit/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	registry := session.NewRegistry()
	h := hub.New(logger)

	// The history queue is optional; without Redis the hub runs standalone.
	var recorder session.Recorder
	if cfg.RedisAddr != "" {
		rdb, err := history.Connect(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis connect failed: %v", err)
		}
		pub := history.NewPublisher(rdb, cfg.HistoryQueue, logger)
		go pub.Run(context.Background())
		recorder = pub
		logger.Infof("session history enabled on %s (queue %q)", cfg.RedisAddr, cfg.HistoryQueue)
	}

	manager := session.NewManager(registry, h, recorder, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(
		handlers.WSHandler(logger, h, manager, cfg.AllowedOrigins),
	))
	mux.Handle("/games", middleware.LogMiddleware(logger)(
		handlers.ListGamesHandler(registry),
	))

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-relay/internal/calls"
	"call-relay/internal/config"
	"call-relay/internal/httpapi"
	"call-relay/internal/relay"
	"call-relay/internal/session"
	"call-relay/internal/telephony"
	"call-relay/internal/ws"
	"call-relay/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	for _, warning := range cfg.Warnings() {
		log.Warn(warning)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store := session.NewStore()
	registry := ws.NewRegistry(log)

	var provider telephony.Provider
	if cfg.TwilioConfigured() {
		provider = telephony.NewTwilio(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
	}

	var streamer relay.Streamer
	if cfg.OpenAIConfigured() {
		streamer = relay.NewOpenAIStreamer(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	orch := calls.NewOrchestrator(store, provider, registry, cfg.PublicURL, calls.DefaultPrompts(), log)
	relaySvc := relay.NewService(streamer, log)
	dispatcher := ws.NewDispatcher(registry, orch, relaySvc, log)
	wsHandler := ws.NewHandler(registry, dispatcher)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, httpapi.Handlers{Calls: orch, Store: store}, wsHandler, registry)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "public_url", cfg.PublicURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// RIDS website chatbot backend.
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/rids-cl/webchat/assistant"
	"github.com/rids-cl/webchat/chat"
	"github.com/rids-cl/webchat/dispatch"
	"github.com/rids-cl/webchat/internal/config"
	"github.com/rids-cl/webchat/internal/httpapi"
	"github.com/rids-cl/webchat/internal/mail"
	"github.com/rids-cl/webchat/internal/middleware"
	"github.com/rids-cl/webchat/logging"
	"github.com/rids-cl/webchat/model"
	modelanthropic "github.com/rids-cl/webchat/model/anthropic"
	modelopenai "github.com/rids-cl/webchat/model/openai"
	"github.com/rids-cl/webchat/session"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	logger.Info("Starting server", "port", cfg.Port, "provider", cfg.Provider, "dev", cfg.IsDevelopment())

	gen := newGenerator(cfg)
	info := gen.Info()

	queue := dispatch.New(func(o *dispatch.Options) {
		o.MaxParallel = cfg.MaxParallel
		o.MaxAttempts = cfg.RetryAttempts
		o.BackoffBase = cfg.BackoffBase
		o.LongDelayThreshold = cfg.LongDelayThreshold
		o.Pace = cfg.Pace
		o.Logger = logger
	})

	store := session.NewInMemoryStore(func(o *session.Options) {
		o.TranscriptLimit = cfg.TranscriptLimit
		o.MaxSessions = cfg.MaxSessions
	})

	client := assistant.NewClient(gen, queue, func(o *assistant.Options) {
		o.Temperature = cfg.Temperature
		o.MaxOutputTokens = cfg.MaxOutputTokens
		o.PromptCharBudget = cfg.PromptCharBudget
		o.Logger = logger
	})

	orch := chat.NewOrchestrator(store, client, func(o *chat.Options) {
		o.MaxTextLen = cfg.MaxTextLen
		o.MinInterval = cfg.MinInterval
		o.Logger = logger
	})

	handler := httpapi.NewHandler(orch, httpapi.ServiceInfo{
		Name:     "rids-webchat",
		Version:  version,
		Provider: info.Provider,
		Model:    info.Name,
	}, func(o *httpapi.Options) {
		if cfg.Mail.Host != "" {
			o.Mailer = mail.NewSMTPMailer(cfg.Mail)
		}
		o.Logger = logger
	})

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(middleware.AllowedOrigins(cfg.FrontendOrigin)))
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped successfully")
}

// newGenerator selects the upstream model adapter for the configured provider.
// Config validation guarantees the provider is one of the known values.
func newGenerator(cfg *config.Config) model.Generator {
	switch cfg.Provider {
	case "anthropic":
		return modelanthropic.NewModel(func(o *modelanthropic.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
			o.APIKey = cfg.APIKey
		})
	default:
		return modelopenai.NewModel(func(o *modelopenai.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
			o.APIKey = cfg.APIKey
		})
	}
}

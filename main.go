package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/healthq/healthq/auth"
	"github.com/healthq/healthq/bus"
	"github.com/healthq/healthq/chat"
	"github.com/healthq/healthq/config"
	"github.com/healthq/healthq/controllers"
	"github.com/healthq/healthq/db"
	"github.com/healthq/healthq/logger"
	"github.com/healthq/healthq/mailer"
	"github.com/healthq/healthq/responder"
)

type Handlers struct {
	Authentication *controllers.AuthController
	ChatController *controllers.ChatController
	Health         *controllers.HealthController
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel)

	store := openStore(cfg, log)
	defer store.Close(context.Background())

	resp, aiConnected := buildResponder(cfg, log)
	publisher := connectBus(cfg, log)
	defer publisher.Close()

	tokens := auth.NewTokens(cfg.JWT.Secret)
	dispatcher := chat.NewDispatcher(store, resp, publisher, log, cfg.Responder.Timeout)

	handlers := &Handlers{
		Authentication: &controllers.AuthController{
			Store:  store,
			Tokens: tokens,
			Bus:    publisher,
			Mailer: mailer.New(cfg.Mail, log),
			Log:    log,
		},
		ChatController: &controllers.ChatController{
			Dispatcher: dispatcher,
			Tokens:     tokens,
			Log:        log,
		},
		Health: &controllers.HealthController{
			Store:       store,
			AIConnected: aiConnected,
		},
	}

	httpRouter := http.NewServeMux()

	//PUBLIC
	httpRouter.HandleFunc("POST /register", handlers.Authentication.Register)
	httpRouter.HandleFunc("POST /login", handlers.Authentication.Login)
	httpRouter.HandleFunc("GET /health", handlers.Health.Health)

	//CHAT
	httpRouter.HandleFunc("POST /chat", handlers.ChatController.Chat)
	httpRouter.HandleFunc("POST /chat/stream", handlers.ChatController.ChatStream)
	httpRouter.HandleFunc("GET /history", handlers.ChatController.History)
	httpRouter.HandleFunc("GET /sessions/{sessionID}/messages", handlers.ChatController.SessionMessages)

	handler := cors.AllowAll().Handler(httpRouter)

	thisServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		IdleTimeout: 120 * time.Second,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "port", cfg.Port)
		if err := thisServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("graceful shutdown", "signal", sig.String())

	timeoutContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := thisServer.Shutdown(timeoutContext); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}

// openStore prefers Mongo when a URI is configured and reachable, falling
// back to the local sqlite database, and finally to the typed unavailable
// store. Startup never crashes over a missing backend.
func openStore(cfg *config.Config, log *logger.Logger) db.Store {
	if cfg.Database.MongoURI != "" {
		store, err := db.NewMongoStore(context.Background(), cfg.Database.MongoURI, cfg.Database.MongoName)
		if err == nil {
			log.Info("mongodb connected")
			return store
		}
		log.Error("mongodb connection failed, falling back to sqlite", "error", err)
	}

	store, err := db.NewSQLiteStore(cfg.Database.SQLitePath)
	if err == nil {
		log.Info("sqlite store opened", "path", cfg.Database.SQLitePath)
		return store
	}
	log.Error("sqlite store failed, persistence unavailable", "error", err)

	return db.Unavailable{}
}

// buildResponder returns the configured vendor responder, or the rule engine
// when no API key is present or initialization fails.
func buildResponder(cfg *config.Config, log *logger.Logger) (responder.Responder, bool) {
	if cfg.Responder.APIKey == "" || cfg.Responder.Provider == "rules" {
		log.Info("no responder credential, using rule engine")
		return responder.NewRules(), false
	}

	llm, err := responder.NewLLM(context.Background(), cfg.Responder.Provider, cfg.Responder.APIKey, cfg.Responder.Model)
	if err != nil {
		log.Error("responder init failed, using rule engine", "error", err)
		return responder.NewRules(), false
	}

	log.Info("responder initialized", "provider", cfg.Responder.Provider, "model", cfg.Responder.Model)
	return llm, true
}

func connectBus(cfg *config.Config, log *logger.Logger) bus.Publisher {
	if !cfg.Bus.Enabled {
		return &bus.LogPublisher{Log: log}
	}

	natsBus, err := bus.ConnectNATS(cfg.Bus.URL, log)
	if err != nil {
		log.Error("bus connection failed, events will be logged only", "error", err)
		return &bus.LogPublisher{Log: log}
	}

	if err := natsBus.ConsumeAlerts(); err != nil {
		log.Error("alert consumer failed", "error", err)
	}

	log.Info("bus connected", "url", cfg.Bus.URL)
	return natsBus
}

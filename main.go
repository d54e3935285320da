package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/pflag"

	"github.com/pliu/roomchat/internal/auth"
	"github.com/pliu/roomchat/internal/config"
	"github.com/pliu/roomchat/internal/conversation"
	"github.com/pliu/roomchat/internal/handlers"
	"github.com/pliu/roomchat/internal/middleware"
	"github.com/pliu/roomchat/internal/roomtoken"
	"github.com/pliu/roomchat/internal/store/sqlstore"
	"github.com/pliu/roomchat/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var addr, envFile string
	flagSet := pflag.NewFlagSet("roomchat", pflag.ContinueOnError)
	flagSet.StringVar(&addr, "addr", "", "http service address (overrides ADDR)")
	flagSet.StringVar(&envFile, "env-file", ".env", "optional dotenv file to load")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	key, err := cfg.RoomTokenKey()
	if err != nil {
		return err
	}
	codec, err := roomtoken.NewCodec(key)
	if err != nil {
		return err
	}
	issuer, err := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.AuthTokenDuration)
	if err != nil {
		return err
	}

	store, err := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing database...")
		_ = store.Close()
	}()

	hub := ws.NewHub(codec, log)

	authHandler := &handlers.AuthHandler{Store: store, Tokens: issuer, Log: log}
	conversationHandler := &handlers.ConversationHandler{
		Service: conversation.NewService(store, codec),
		Log:     log,
	}

	r := mux.NewRouter()
	r.Use(middleware.Logging(log))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// No request timeout here: the connection outlives the handshake.
	r.Handle("/ws", middleware.Auth(issuer)(http.HandlerFunc(hub.ServeWs))).Methods("GET")

	api := r.NewRoute().Subrouter()
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	api.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(issuer))
	protected.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/conversations", conversationHandler.GetContacts).Methods("GET")
	protected.HandleFunc("/conversations/{id}", conversationHandler.CreateConversation).Methods("POST")
	protected.HandleFunc("/conversations/{id}", conversationHandler.GetConversation).Methods("GET")
	protected.HandleFunc("/conversations/{id}/messages", conversationHandler.GetMessages).Methods("GET")
	protected.HandleFunc("/conversations/{id}/messages", conversationHandler.SendMessage).Methods("POST")

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", cfg.Addr, "driver", cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown did not complete", "error", err)
	}
	hub.Close()
	log.Info("Program stopped cleanly")
	return nil
}

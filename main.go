package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/imaxbooking/chat-server/auth"
	"github.com/imaxbooking/chat-server/chat"
	"github.com/imaxbooking/chat-server/config"
	"github.com/imaxbooking/chat-server/hub"
	"github.com/imaxbooking/chat-server/internal/api"
	"github.com/imaxbooking/chat-server/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	serverCtx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.Any("error", err))
		os.Exit(1)
	}

	messageStore, cleanup, err := openMessageStore(serverCtx, cfg)
	if err != nil {
		logger.Error("open message store", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	verifier := auth.NewTokenVerifier(cfg.Auth.Secret)

	h := hub.New(auth.NewTokenAuthenticator(verifier),
		hub.WithLogger(logger.With(slog.String("component", "hub"))),
		hub.WithBaseContext(serverCtx))

	service := chat.NewService(h, messageStore,
		chat.WithLogger(logger.With(slog.String("component", "chat"))))
	service.Bind(h)
	h.Start()

	a := api.NewApi(verifier, messageStore, h, api.ApiConfig{
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: a.Mux(),
		BaseContext: func(_ net.Listener) context.Context {
			return serverCtx
		},
	}

	done := make(chan struct{})
	go func() {
		<-serverCtx.Done()
		logger.Info("server is shutting down")

		exitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := server.Shutdown(exitCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
		h.Close()
		close(done)
	}()

	logger.Info("server started", slog.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
	<-done
}

func openMessageStore(ctx context.Context, cfg *config.Config) (store.MessageStore, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return store.NewMemoryMessageStore(), func() {}, nil

	case config.DriverSQLite:
		db, err := sql.Open("sqlite3", cfg.Store.SQLite.File)
		if err != nil {
			return nil, nil, err
		}
		goose.SetBaseFS(os.DirFS(cfg.Store.SQLite.Migrations))
		if err := goose.SetDialect("sqlite3"); err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := goose.Up(db, "."); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store.NewSQLiteMessageStore(db), func() { db.Close() }, nil

	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Store.Mongo.URI))
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			client.Disconnect(context.Background())
			return nil, nil, err
		}
		messageStore, err := store.NewMongoMessageStore(client.Database(cfg.Store.Mongo.Database))
		if err != nil {
			client.Disconnect(context.Background())
			return nil, nil, err
		}
		return messageStore, func() { client.Disconnect(context.Background()) }, nil
	}
	panic("unreachable: config validation covers the store driver")
}

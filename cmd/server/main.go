package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-google-login/internal/config"
	"github.com/jrsteele09/go-google-login/loginflow"
	"github.com/jrsteele09/go-google-login/loginflow/authflowrepo"
	"github.com/jrsteele09/go-google-login/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const stateCleanupInterval = time.Minute

func main() {
	c, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	configureLogging(c)

	if err := run(c); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run(c *config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	displayAppname(c.AppName)

	states, closeStates, err := newStateRepo(ctx, c)
	if err != nil {
		return err
	}
	defer closeStates()

	flow, err := loginflow.New(ctx, c, states)
	if err != nil {
		return fmt.Errorf("loginflow.New: %w", err)
	}

	srv := &http.Server{
		Addr:              c.Addr(),
		Handler:           server.New(c, flow),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(srv)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	return shutdown(srv)
}

func newStateRepo(ctx context.Context, c *config.Config) (authflowrepo.Repo, func(), error) {
	switch c.StateStore {
	case config.StateStoreRedis:
		repo, err := authflowrepo.NewRedisRepo(ctx, authflowrepo.RedisConfig{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			KeyPrefix: c.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("authflowrepo.NewRedisRepo: %w", err)
		}
		log.Info().Str("addr", c.Redis.Addr).Msg("Using redis state store")
		return repo, func() { _ = repo.Close() }, nil
	default:
		repo := authflowrepo.NewInMemoryRepo()
		go repo.RunCleanup(ctx, stateCleanupInterval)
		log.Info().Msg("Using in-memory state store")
		return repo, func() {}, nil
	}
}

func configureLogging(c *config.Config) {
	var out io.Writer = os.Stderr
	if c.IsDev() {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("app", c.AppName).Logger()

	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", c.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Loggers fetched from a request context fall back to the global logger
	zerolog.DefaultContextLogger = &log.Logger
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

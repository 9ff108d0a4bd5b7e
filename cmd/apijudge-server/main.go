package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/apijudge/internal/config"
	"github.com/at-ishikawa/apijudge/internal/inference/backends"
	"github.com/at-ishikawa/apijudge/internal/server"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	client, closeClient, err := backends.New(ctx, cfg.Backend, cfg)
	if err != nil {
		return fmt.Errorf("backends.New() > %w", err)
	}
	defer func() {
		_ = closeClient()
	}()

	handler := server.NewValidatorHandler(backends.NewValidator(client, cfg))
	path, h := server.NewValidatorServiceHandler(handler)

	mux := http.NewServeMux()
	mux.Handle(path, h)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting server", "addr", addr, "backend", client.Name())
	return http.ListenAndServe(addr, server.CORSMiddleware(cfg.Server.CORS.AllowedOrigins, h2c.NewHandler(mux, &http2.Server{})))
}

func loadConfig() (*config.Config, error) {
	configFile := os.Getenv("APIJUDGE_CONFIG")
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

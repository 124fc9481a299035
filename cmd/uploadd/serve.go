package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/uploadkit/modules/media"
	"github.com/dmitrymomot/uploadkit/pkg/clientip"
	"github.com/dmitrymomot/uploadkit/pkg/httpserver"
	"github.com/dmitrymomot/uploadkit/pkg/logger"
	"github.com/dmitrymomot/uploadkit/pkg/requestid"
	"github.com/dmitrymomot/uploadkit/pkg/upload"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		addr     string
		storage  string
		localDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr = addr
			}
			if cmd.Flags().Changed("storage") {
				cfg.Storage = storage
			}
			if cmd.Flags().Changed("dir") {
				cfg.LocalDir = localDir
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (UPLOAD_HTTP_ADDR)")
	cmd.Flags().StringVar(&storage, "storage", "local", "storage backend: local, s3 or gridfs (UPLOAD_STORAGE)")
	cmd.Flags().StringVar(&localDir, "dir", "./uploads", "root directory for local storage (UPLOAD_LOCAL_DIR)")
	return cmd
}

func serve(ctx context.Context, cfg Config) error {
	log, err := cfg.newLogger()
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	naming, err := cfg.namingFunc()
	if err != nil {
		return err
	}
	interceptor, err := upload.New(upload.Config{
		FileName:    naming,
		Saver:       store.saver,
		MaxBodySize: cfg.MaxBodySize,
		MaxFileSize: cfg.MaxFileSize,
	}, upload.WithLogger(log))
	if err != nil {
		return fmt.Errorf("create interceptor: %w", err)
	}

	router := newRouter(cfg, store, interceptor, log)

	opts := []httpserver.Option{httpserver.WithLogger(log)}
	if store.close != nil {
		opts = append(opts, httpserver.WithShutdownHook(store.close))
	}

	log.InfoContext(ctx, "starting upload service",
		logger.Component("uploadd"),
		slog.String("storage", cfg.Storage),
		slog.String("addr", cfg.HTTP.Addr),
	)
	return httpserver.New(cfg.HTTP, router, opts...).Run(ctx)
}

func newRouter(cfg Config, store *storage, interceptor *upload.Interceptor, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware())

	r.Get("/health/live", httpserver.HealthCheckHandler(log))
	r.Get("/health/ready", httpserver.HealthCheckHandler(log, store.checks...))

	r.Mount("/uploads", media.Router(media.Options{
		Interceptor: interceptor,
		Limits:      cfg.limits(),
		Logger:      log,
	}))

	if store.localRoot != "" && strings.HasPrefix(cfg.LocalBaseURL, "/") {
		base := "/" + strings.Trim(cfg.LocalBaseURL, "/") + "/"
		r.Handle(base+"*", http.StripPrefix(base, http.FileServer(http.Dir(store.localRoot))))
	}

	return r
}

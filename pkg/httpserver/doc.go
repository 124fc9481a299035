// Package httpserver runs an http.Server with upload-friendly timeouts and
// graceful shutdown.
//
//	srv := httpserver.New(cfg, router,
//		httpserver.WithLogger(log),
//		httpserver.WithShutdownHook(client.Disconnect),
//	)
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx); err != nil {
//		log.Error("server", logger.Error(err))
//	}
//
// Run blocks until ctx is cancelled, then drains in-flight requests for at
// most Config.ShutdownTimeout and runs the shutdown hooks.
package httpserver

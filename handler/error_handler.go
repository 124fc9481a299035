package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/uploadkit/core"
	"github.com/dmitrymomot/uploadkit/pkg/logger"
	"github.com/dmitrymomot/uploadkit/pkg/validator"
)

// NewErrorHandler returns an ErrorHandler that logs the failure and renders
// it with JSONError. Client errors are logged at warn level, server errors
// at error level; validation failures are logged at debug level.
func NewErrorHandler[C Context](log *slog.Logger) ErrorHandler[C] {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(ctx C, err error) {
		r := ctx.Request()
		status := core.StatusCode(err)
		if validator.IsValidationError(err) {
			status = http.StatusUnprocessableEntity
		}

		log.Log(ctx, logLevel(err, status), "request failed",
			logger.Component("handler"),
			logger.Error(err),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		if rerr := JSONError(err).Render(ctx.ResponseWriter(), r); rerr != nil {
			log.ErrorContext(ctx, "render error response", logger.Error(rerr))
		}
	}
}

func logLevel(err error, status int) slog.Level {
	switch {
	case validator.IsValidationError(err):
		return slog.LevelDebug
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Package recoverer provides a middleware that turns handler panics into a
// logged 500 response.
package recoverer

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
)

type defaultResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Option func(*recoverer)

// WithResponse sets the JSON body written after a panic.
func WithResponse(v any) Option {
	return func(rc *recoverer) {
		rc.response = v
	}
}

type recoverer struct {
	logger   *slog.Logger
	response any
}

func New(logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	const op = "middleware.recoverer.New"

	rc := &recoverer{
		logger: logger,
		response: defaultResponse{
			Status:  "error",
			Message: "server error occurred",
		},
	}
	for _, opt := range opts {
		opt(rc)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				rc.logger.Error(
					"something went wrong, panic occurred",
					slog.Group(op, slog.Any("err", rvr), slog.String("stack", string(debug.Stack()))),
				)
				httplog.LogEntrySetField(r.Context(), "panic", slog.StringValue(fmt.Sprint(rvr)))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, rc.response)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

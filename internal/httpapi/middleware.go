package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fjod/shopflow/internal/logging"
)

// RequestLogger puts a request-scoped logger in the context and logs one
// line per request once it completes.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			log := base.With("request_id", requestID)
			ctx := logging.WithCtx(r.Context(), log)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			log.InfoContext(ctx, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type resetsKey struct{}

// TrackResets remembers how many forced navigations had happened when the
// request arrived.
func TrackResets(s Surface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), resetsKey{}, s.Resets())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resetDuring reports whether s was reset after the request arrived.
func resetDuring(ctx context.Context, s Surface) bool {
	before, ok := ctx.Value(resetsKey{}).(int)
	return ok && s.Resets() > before
}

// internal/delivery/rest/middleware.go
package rest

import (
	"net/http"
	"time"

	"github.com/lazy-geeek/liqui-api/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HTTPObserver принимает метрики запросов
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// requestLogger логирует запросы и передает их длительность в метрики
func requestLogger(observer HTTPObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			if observer != nil {
				observer.ObserveHTTP(r.Method, route, status, elapsed)
			}
			logger.Debug("🌐 %s %s -> %d (%d байт, %v) [%s]",
				r.Method, r.URL.RequestURI(), status, ww.BytesWritten(), elapsed, middleware.GetReqID(r.Context()))
		})
	}
}

package middleware

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

// RequestLogger writes one access log line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			opts := []logger.LoggerOptions{
				{Key: "method", Data: r.Method},
				{Key: "path", Data: r.URL.Path},
				{Key: "status", Data: status},
				{Key: "bytes", Data: ww.BytesWritten()},
				{Key: "duration", Data: time.Since(start)},
				{Key: "request_id", Data: chiMiddleware.GetReqID(r.Context())},
				{Key: "remote", Data: r.RemoteAddr},
			}
			if status >= http.StatusInternalServerError {
				logger.Warning("http request", opts...)
				return
			}
			logger.Info("http request", opts...)
		}()

		next.ServeHTTP(ww, r)
	})
}

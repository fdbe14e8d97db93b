package middleware

import (
	"net/http"

	logpkg "github.com/benvon/todo-app/internal/logger"
	"github.com/benvon/todo-app/internal/request"
	"go.uber.org/zap"
)

// Audit logs abuse-related responses: rate limiting and oversized or mistyped bodies
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			case http.StatusRequestEntityTooLarge:
				event = "request_too_large"
			case http.StatusUnsupportedMediaType:
				event = "unsupported_media_type"
			default:
				return
			}

			logger.Warn(event,
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
				zap.String("request_id", request.ID(r)),
			)
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/benvon/todo-app/internal/request"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORS handles cross-origin headers and OPTIONS preflight requests for allowedOrigins.
// It must wrap the router itself: gorilla/mux skips r.Use middleware when no route
// matches, which is the case for every preflight.
func CORS(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:8000"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", request.HeaderRequestID},
		ExposedHeaders: []string{request.HeaderRequestID},
		MaxAge:         86400,
	})

	logger.Info("cors_configured", zap.Strings("allowed_origins", allowedOrigins))

	return c.Handler
}

package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/pulseboardhq/pulseboard-backend/pkg/config"
)

// CORS applies the configured origin allow-list. The dashboard is a
// browser app, so analytics reads must survive preflight.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}

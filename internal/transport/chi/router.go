package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reformhub/internal/metrics"
)

// NewRouter mounts the API on a chi router with the standard middleware stack.
// apiKeys guard the image upload endpoint only.
func NewRouter(s *Server, apiKeys []string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(JSONRecoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(log))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.Search)
		r.Get("/facets", s.Facets)
		r.Get("/preview", s.Preview)
		r.Post("/contributions", s.CreateContribution)
		r.Route("/resources/{id}", func(r chi.Router) {
			r.Get("/", s.GetResource)
			r.Get("/related", s.RelatedResources)
			r.With(BearerAuthMiddleware(apiKeys)).Post("/image", s.UploadImage)
		})
	})
	return r
}

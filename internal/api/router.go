package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.middlewares()...)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.rateLimited(s.loginLimiter, s.handleLogin))

		// WebSocket authenticates its own token before upgrading.
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)

			r.Route("/sensor-types", func(r chi.Router) {
				r.Get("/", s.handleListSensorTypes)
				r.Post("/", s.handleCreateSensorType)

				r.Route("/{type}", func(r chi.Router) {
					r.Get("/", s.handleGetSensorType)
					r.Put("/", s.handleUpdateSensorType)
					r.Delete("/", s.handleDeleteSensorType)

					r.Get("/config", s.handleGetSensorTypeConfig)
					r.Get("/config/text", s.handleGetSensorTypeConfigText)
					r.Get("/config/display", s.handleGetSensorTypeConfigDisplay)
					r.Put("/config/{section}/{key}", s.handleSetConfigValue)
					r.Delete("/config/{section}/{key}", s.handleDeleteConfigValue)
				})
			})

			// Stateless codec endpoints used by the editor preview.
			r.Route("/config", func(r chi.Router) {
				r.Post("/parse", s.handleParseConfig)
				r.Post("/stringify", s.handleStringifyConfig)
				r.Post("/display", s.handleDisplayConfig)
			})

			r.Route("/sensors", func(r chi.Router) {
				r.Post("/list", s.handleListSensors)
				r.Post("/", s.handleCreateSensor)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSensor)
					r.Put("/", s.handleUpdateSensor)
					r.Delete("/", s.handleDeleteSensor)
					r.Put("/status", s.handleUpdateSensorStatus)
				})
			})

			r.Route("/svids", func(r chi.Router) {
				r.Post("/batch", s.handleSVIDBatch)
				r.Get("/{svid}/data", s.handleGetSVIDData)
			})

			r.Get("/audit-logs", s.handleListAuditLogs)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":       "ok",
		"version":      s.version,
		"sensor_types": len(s.sensorTypes.List(r.Context())),
		"ws_clients":   s.hub.ClientCount(),
	}
	if s.telemetry != nil {
		resp["svids"] = s.telemetry.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	attendanceHandler := handlers.NewAttendanceHandler(s.config, s.service)
	identitiesHandler := handlers.NewIdentitiesHandler(s.config, s.service)
	analyticsHandler := handlers.NewAnalyticsHandler(s.config, s.service)
	configHandler := handlers.NewConfigHandler(s.config, s.service.Strategy(), database.ActiveBackend())

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Get("/api/v1/ready", handlers.Readiness(s.store))

	s.router.Route("/api/v1", func(r chi.Router) {
		// Enrollment and check-in
		r.Post("/register", attendanceHandler.Register)
		r.Post("/attendance/face", attendanceHandler.MarkFace)
		r.Post("/attendance/qr", attendanceHandler.MarkQR)
		r.Post("/liveness", attendanceHandler.Liveness)

		// Identities
		r.Get("/identities", identitiesHandler.List)
		r.Get("/identities/{key}", identitiesHandler.Get)

		// Reporting
		r.Get("/attendance/recent", analyticsHandler.Recent)
		r.Get("/analytics/stats", analyticsHandler.Stats)
		r.Get("/analytics/trend", analyticsHandler.Trend)

		// Config
		r.Get("/config", configHandler.Get)
	})
}

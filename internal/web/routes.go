package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Pinkesh2905/FaceTrace/internal/web/handlers"
	"github.com/Pinkesh2905/FaceTrace/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	d := s.deps
	recognizeHandler := handlers.NewRecognizeHandler(d.Cache, d.Extractor, d.Attendance, d.Employees,
		s.config.Recognition.Tolerance, s.config.Web.AllowedOrigins, s.logger)
	facesHandler := handlers.NewFacesHandler(d.Registrar, d.Cache, s.logger)
	attendanceHandler := handlers.NewAttendanceHandler(d.Attendance, d.Employees, s.logger)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireTenant([]byte(s.config.Web.JWTKey)))

		// Long-lived websocket, outside the request timeout
		r.Get("/observations/stream", recognizeHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(2 * time.Minute))

			// Recognition
			r.Post("/recognize", recognizeHandler.Recognize)

			// Face registration and the encoding cache
			r.Post("/employees/{id}/face", facesHandler.Register)
			r.Delete("/employees/{id}/face", facesHandler.Delete)
			r.Post("/encodings/refresh", facesHandler.Refresh)

			// Attendance
			r.Post("/attendance/manual", attendanceHandler.Manual)
			r.Get("/attendance/daily/{date}", attendanceHandler.Daily)
			r.Get("/employees/{id}/punches", attendanceHandler.Punches)
			r.Get("/employees/{id}/summary/{date}", attendanceHandler.Summary)
			r.Post("/employees/{id}/summary/{date}/recompute", attendanceHandler.Recompute)
			r.Get("/employees/{id}/stats", attendanceHandler.Stats)
		})
	})
}

package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facerecognx/internal/web/handlers"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
	"github.com/kozaktomas/facerecognx/internal/web/static"
)

func (s *Server) setupRoutes() {
	deps := s.deps
	sm := deps.Sessions
	store := deps.Store

	// Create handlers
	authHandler := handlers.NewAuthHandler(deps.Config, sm, store.Teachers, s.renderer)
	adminHandler := handlers.NewAdminHandler(sm, store.Teachers, store.Students, s.renderer)
	teacherHandler := handlers.NewTeacherHandler(deps.Config, sm, store.Students, store.Attendance, deps.Recognizer, s.renderer)
	studentsHandler := handlers.NewStudentsHandler(deps.Enroller)
	attendanceHandler := handlers.NewAttendanceHandler(sm, deps.Recognizer, store.Attendance, store.Students, s.renderer)
	healthHandler := handlers.NewHealthHandler(store.Healthy, deps.FaceHealth)

	// Health, metrics and assets (no auth required)
	s.router.Get("/healthz", healthHandler.Health)
	if deps.Metrics != nil {
		s.router.Handle("/metrics", deps.Metrics.Handler())
	}
	s.router.Handle("/static/*", static.Handler("/static/"))

	// Login
	s.router.Get("/", authHandler.LoginPage)
	s.router.Post("/", authHandler.Login)
	s.router.Get("/logout", authHandler.Logout)

	// Admin pages
	s.router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireLogin(sm))
		r.Use(middleware.RequireAdmin(deps.Config.Admin.ID))

		r.Get("/dashboard", adminHandler.Dashboard)
		r.Get("/register_teacher", adminHandler.RegisterTeacherPage)
		r.Post("/register_teacher", adminHandler.RegisterTeacher)
	})

	// Teacher pages
	s.router.Route("/teacher", func(r chi.Router) {
		r.Get("/login", authHandler.LoginPage)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin(sm))

			r.Get("/dashboard", teacherHandler.Dashboard)
			r.Get("/register_student", teacherHandler.RegisterStudentPage)
			r.Post("/register_student", studentsHandler.Register)
			r.Get("/capture_attendance", teacherHandler.CaptureAttendancePage)
			r.Get("/daily_attendance", attendanceHandler.DailyPage)
		})
	})

	// JSON API
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sm))

		r.Post("/mark_attendance", attendanceHandler.Mark)
		r.Get("/daily_attendance", attendanceHandler.DailyAPI)
	})
}

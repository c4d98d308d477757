package routes

import (
	"github.com/triptales/triptales-backend/internal/handlers"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.GetMe)
	r.Post("/api/auth/forgot-password", handlers.ForgotPassword)
	r.Post("/api/auth/reset-password", handlers.ResetPassword)

	// Journal routes
	r.Post("/api/journals", handlers.CreateJournal)
	r.Get("/api/journals", handlers.GetJournals)
	r.Get("/api/journals/map", handlers.GetMapFeed)

	// Summarization proxy for the new-journal screen
	r.Post("/api/journals/summary", handlers.GenerateSummary)

	// Reverse geocoding for location labels
	r.Get("/api/geocode/reverse", handlers.ReverseGeocode)

	// WebSocket endpoint for live map markers
	r.Get("/ws/feed", handlers.FeedWebSocket)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tripmate/tripmate-api/internal/domain"
)

// Routes builds the API router. authLimiter wraps the credential endpoints;
// pass nil to disable rate limiting.
func (h *Handlers) Routes(authLimiter func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/info", h.Info)

		r.Route("/auth", func(r chi.Router) {
			if authLimiter != nil {
				r.Use(authLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/verify-otp", h.VerifyOTP)
			r.Post("/resend-otp", h.ResendOTP)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.With(h.RequireJWT()).Post("/logout", h.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequireJWT())
			r.Get("/me", h.GetMe)
			r.Put("/me", h.UpdateMe)
		})

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", h.ListTours)
			r.Get("/categories", h.TourCategories)
			r.Get("/search/suggestions", h.TourSuggestions)
			r.Get("/statistics/overview", h.TourStatistics)
			r.Get("/{id}", h.GetTour)
			r.Get("/{id}/availability", h.TourAvailability)

			r.With(h.RequireJWT(domain.RoleGuide)).Post("/", h.CreateTour)
			r.With(h.RequireJWT(domain.RoleGuide)).Put("/{id}", h.UpdateTour)
			r.With(h.RequireJWT(domain.RoleGuide)).Delete("/{id}", h.DeleteTour)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(h.RequireJWT())
			r.Post("/", h.CreateBooking)
			r.Get("/", h.ListBookings)
			r.Get("/my-bookings", h.ListMyBookings)
			r.Get("/statistics", h.BookingStatistics)
			r.Get("/{id}", h.GetBooking)
			r.Put("/{id}/status", h.UpdateBookingStatus)
			r.Put("/{id}/cancel", h.CancelBooking)
			r.Post("/{id}/payment-intent", h.CreateBookingPaymentIntent)

			r.With(h.RequireJWT(domain.RoleAdmin)).Put("/{id}/confirm-payment", h.ConfirmBookingPayment)
		})

		r.Route("/posts", func(r chi.Router) {
			// Reads are public; a bearer token only personalizes likedByMe.
			r.With(h.OptionalJWT()).Get("/", h.ListPosts)
			r.With(h.OptionalJWT()).Get("/user/{userId}", h.ListUserPosts)
			r.With(h.OptionalJWT()).Get("/{id}", h.GetPost)
			r.Get("/{id}/comments", h.ListComments)

			r.With(h.RequireJWT()).Post("/", h.CreatePost)
			r.With(h.RequireJWT()).Put("/{id}", h.UpdatePost)
			r.With(h.RequireJWT()).Delete("/{id}", h.DeletePost)
			r.With(h.RequireJWT()).Post("/{id}/like", h.LikePost)
			r.With(h.RequireJWT()).Post("/{id}/comments", h.CreateComment)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(h.RequireJWT())
			r.Delete("/{id}", h.DeleteComment)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(h.RequireJWT())
			r.Get("/", h.ListNotifications)
			r.Get("/stats", h.NotificationStats)
			r.Get("/unread-count", h.UnreadNotificationCount)
			r.Put("/mark-read", h.MarkNotificationsRead)
			r.Delete("/clear", h.ClearNotifications)
			r.Get("/{id}", h.GetNotification)
			r.Put("/{id}/unread", h.MarkNotificationUnread)
			r.Delete("/{id}", h.DeleteNotification)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/webhook", h.PaymentWebhook)
		})
	})

	return r
}

package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"staybook/internal/booking"
	"staybook/internal/feedback"
	"staybook/internal/middleware"
	"staybook/internal/payment"
	"staybook/internal/room"
	"staybook/internal/web"
)

// Controllers groups the HTTP handlers mounted by NewRouter.
type Controllers struct {
	Rooms     *room.Controller
	Bookings  *booking.Controller
	Payments  *payment.Controller
	Feedbacks *feedback.Controller
}

func NewRouter(ctrls Controllers, tokens *middleware.Tokens, logger *zap.Logger) http.Handler {
	rs := web.NewResponder(logger)
	authenticate := middleware.Authenticate(tokens, rs)
	admin := middleware.RequireAdmin(rs)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		rs.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", ctrls.Rooms.List)
			r.Get("/available", ctrls.Rooms.AvailableBetween)
			r.Get("/{roomId}", ctrls.Rooms.Get)
			r.Get("/{roomId}/feedbacks", ctrls.Feedbacks.ListByRoom)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, admin)
				r.Post("/", ctrls.Rooms.Create)
				r.Put("/{roomId}", ctrls.Rooms.Update)
				r.Delete("/{roomId}", ctrls.Rooms.Delete)
				r.Patch("/{roomId}/availability", ctrls.Rooms.ToggleAvailability)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", ctrls.Bookings.Create)
				r.Get("/mine", ctrls.Bookings.ListMine)
				r.Get("/{bookingId}", ctrls.Bookings.Get)
				r.Put("/{bookingId}", ctrls.Bookings.Modify)
				r.Post("/{bookingId}/cancel", ctrls.Bookings.Cancel)

				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Get("/", ctrls.Bookings.ListAll)
					r.Post("/{bookingId}/validate", ctrls.Bookings.Validate)
					r.Post("/{bookingId}/reschedule", ctrls.Bookings.Reschedule)
				})
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/", ctrls.Payments.Open)
				r.Get("/booking/{bookingId}", ctrls.Payments.GetByBooking)
				r.Get("/{paymentId}", ctrls.Payments.Get)

				// Gateway callbacks arrive with an admin service token.
				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Get("/", ctrls.Payments.List)
					r.Post("/{orderRef}/capture", ctrls.Payments.Capture)
					r.Post("/{orderRef}/fail", ctrls.Payments.Fail)
				})
			})

			r.Route("/feedbacks", func(r chi.Router) {
				r.Post("/", ctrls.Feedbacks.Create)
				r.With(admin).Post("/{feedbackId}/response", ctrls.Feedbacks.Respond)
			})
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rentalhub/internal/config"
	"rentalhub/internal/domain"
	"rentalhub/internal/logging"
	"rentalhub/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the rental façade as a JSON API.
type HTTPServer struct {
	admin     *service.Admin
	auth      *HTTPAuth
	exportDir string
	server    *http.Server
	logger    *zerolog.Logger
}

func NewHTTPServer(cfg *config.Config, admin *service.Admin, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		admin:     admin,
		auth:      NewHTTPAuth(cfg.API),
		exportDir: cfg.Exports.Path,
		logger:    logging.Component(logger, "http"),
	}

	mux := http.NewServeMux()
	srv.routes(mux)

	handler := requestIDMiddleware(loggingMiddleware(srv.logger, srv.auth.RateLimit(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	admin := s.auth.RequireAdmin
	client := s.auth.RequireClient

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/v1/products", s.handleListProducts)
	mux.HandleFunc("GET /api/v1/products/available", s.handleAvailableProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", s.handleGetProduct)
	mux.HandleFunc("GET /api/v1/products/{id}/reviews", s.handleProductReviews)

	mux.HandleFunc("GET /api/v1/bookings", s.handleListBookings)
	mux.HandleFunc("POST /api/v1/bookings", s.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}", s.handleGetBooking)

	mux.HandleFunc("POST /api/v1/users/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/users/register", s.handleRegister)
	mux.HandleFunc("GET /api/v1/users/{id}", client(s.handleGetProfile))
	mux.HandleFunc("PATCH /api/v1/users/{id}", client(s.handleUpdateProfile))
	mux.HandleFunc("GET /api/v1/users/{id}/stats", client(s.handleUserStats))
	mux.HandleFunc("GET /api/v1/users/{id}/bookings", client(s.handleUserBookings))
	mux.HandleFunc("GET /api/v1/users/{id}/notifications", client(s.handleUserNotifications))
	mux.HandleFunc("GET /api/v1/users/{id}/notifications/unread-count", client(s.handleUnreadCount))
	mux.HandleFunc("POST /api/v1/users/{id}/notifications/read-all", client(s.handleMarkAllRead))

	mux.HandleFunc("GET /api/v1/reviews", s.handleListReviews)
	mux.HandleFunc("POST /api/v1/reviews", s.handleCreateReview)

	mux.HandleFunc("PATCH /api/v1/notifications/{id}/read", client(s.handleMarkRead))

	mux.HandleFunc("GET /api/v1/admin/stats", admin(s.handleDashboardStats))
	mux.HandleFunc("GET /api/v1/admin/users", admin(s.handleListUsers))
	mux.HandleFunc("PATCH /api/v1/admin/users/{id}/status", admin(s.handleUpdateUserStatus))
	mux.HandleFunc("POST /api/v1/admin/products", admin(s.handleCreateProduct))
	mux.HandleFunc("PATCH /api/v1/admin/products/{id}", admin(s.handleUpdateProduct))
	mux.HandleFunc("DELETE /api/v1/admin/products/{id}", admin(s.handleDeleteProduct))
	mux.HandleFunc("PATCH /api/v1/admin/bookings/{id}/status", admin(s.handleUpdateBookingStatus))
	mux.HandleFunc("GET /api/v1/admin/bookings/export.xlsx", admin(s.handleExportBookings))
	mux.HandleFunc("GET /api/v1/admin/notifications", admin(s.handleListNotifications))
	mux.HandleFunc("POST /api/v1/admin/notifications", admin(s.handleCreateNotification))
	mux.HandleFunc("GET /api/v1/admin/snapshot", admin(s.handleSnapshot))
	mux.HandleFunc("POST /api/v1/admin/reset", admin(s.handleReset))
}

// Handler returns the full middleware chain.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// fail logs unexpected errors before rendering them.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(domain.KindOf(err)) >= http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("request_id", RequestIDFrom(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeServiceError(w, err)
}

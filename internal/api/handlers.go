package api

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/models"
	"rentalhub/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.Dashboard.Ping(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "store is not reachable")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// products

func (s *HTTPServer) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.admin.Products.GetAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, products)
}

func (s *HTTPServer) handleAvailableProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.admin.Products.GetForRental(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, products)
}

func (s *HTTPServer) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	product, err := s.admin.Products.GetByID(r.Context(), models.ProductID(id))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

func (s *HTTPServer) handleProductReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reviews, err := s.admin.Reviews.GetByProductID(r.Context(), models.ProductID(id))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, reviews)
}

func (s *HTTPServer) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.CreateProductInput
	if !decodeBody(w, r, &in) {
		return
	}
	product, err := s.admin.Products.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, product)
}

func (s *HTTPServer) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.UpdateProductInput
	if !decodeBody(w, r, &in) {
		return
	}
	product, err := s.admin.Products.Update(r.Context(), models.ProductID(id), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

func (s *HTTPServer) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.admin.Products.Delete(r.Context(), models.ProductID(id)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"deleted": id})
}

// bookings

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if raw == "" {
		bookings, err := s.admin.Bookings.GetAll(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeData(w, http.StatusOK, bookings)
		return
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, string(domain.KindValidation), "invalid user_id")
		return
	}
	s.writeUserBookings(w, r, models.UserID(userID))
}

func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.writeUserBookings(w, r, models.UserID(id))
}

func (s *HTTPServer) writeUserBookings(w http.ResponseWriter, r *http.Request, userID models.UserID) {
	bookings, err := s.admin.Bookings.GetByUserID(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, bookings)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	booking, err := s.admin.Bookings.GetByID(r.Context(), models.BookingID(id))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var in service.CreateBookingInput
	if !decodeBody(w, r, &in) {
		return
	}
	booking, err := s.admin.Bookings.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, booking)
}

type bookingStatusRequest struct {
	Status           models.BookingStatus `json:"status"`
	PaymentCompleted bool                 `json:"payment_completed"`
}

func (s *HTTPServer) handleUpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req bookingStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	booking, err := s.admin.Bookings.UpdateStatus(r.Context(), models.BookingID(id), req.Status, req.PaymentCompleted)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, booking)
}

// users

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := s.admin.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeBody(w, r, &in) {
		return
	}
	user, err := s.admin.Users.Register(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, user)
}

func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := s.admin.Users.GetProfile(r.Context(), models.UserID(id))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.UpdateProfileInput
	if !decodeBody(w, r, &in) {
		return
	}
	user, err := s.admin.Users.UpdateProfile(r.Context(), models.UserID(id), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUserStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stats, err := s.admin.Users.GetStats(r.Context(), models.UserID(id))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.Users.GetAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, users)
}

type userStatusRequest struct {
	Status models.UserStatus `json:"status"`
}

func (s *HTTPServer) handleUpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req userStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := s.admin.Users.UpdateStatus(r.Context(), models.UserID(id), req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// reviews

func (s *HTTPServer) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.admin.Reviews.GetAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, reviews)
}

func (s *HTTPServer) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var in service.CreateReviewInput
	if !decodeBody(w, r, &in) {
		return
	}
	review, err := s.admin.Reviews.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, review)
}

// notifications

func (s *HTTPServer) handleUserNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	items, err := s.admin.Notifications.GetByUserID(r.Context(), models.UserID(id))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *HTTPServer) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	count, err := s.admin.Notifications.GetUnreadCount(r.Context(), models.UserID(id))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"unread": count})
}

func (s *HTTPServer) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	marked, err := s.admin.Notifications.MarkAllAsRead(r.Context(), models.UserID(id))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"marked": marked})
}

func (s *HTTPServer) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := s.admin.Notifications.MarkAsRead(r.Context(), models.NotificationID(id))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, n)
}

func (s *HTTPServer) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := s.admin.Notifications.GetAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var in service.CreateNotificationInput
	if !decodeBody(w, r, &in) {
		return
	}
	n, err := s.admin.Notifications.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, n)
}

// admin

func (s *HTTPServer) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Dashboard.GetDashboardStats(r.Context(), time.Now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	from, ok := queryDate(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryDate(w, r, "to")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.admin.Dashboard.ExportBookings(r.Context(), &buf, from, to); err != nil {
		s.fail(w, r, err)
		return
	}

	name := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("20060102_150405"))
	s.keepExport(name, buf.Bytes())

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// keepExport stores a copy of the report in the exports directory.
func (s *HTTPServer) keepExport(name string, data []byte) {
	if s.exportDir == "" {
		return
	}
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		s.logger.Warn().Err(err).Str("dir", s.exportDir).Msg("cannot create export directory")
		return
	}
	path := filepath.Join(s.exportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn().Err(err).Str("file_path", path).Msg("cannot save export")
		return
	}
	s.logger.Info().Str("file_path", path).Msg("Excel file created")
}

func (s *HTTPServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := s.admin.Dashboard.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *HTTPServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.Dashboard.ResetDatabase(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"reset": true})
}

func queryDate(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(domain.KindValidation), fmt.Sprintf("invalid %s date; expected YYYY-MM-DD", name))
		return time.Time{}, false
	}
	return d.Time, true
}

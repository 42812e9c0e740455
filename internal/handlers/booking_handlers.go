package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"charter_backoffice/internal/models"
	"charter_backoffice/internal/services"
	"charter_backoffice/internal/tasks"
)

type BookingHandler struct {
	db            *gorm.DB
	bookings      *services.BookingService
	confirmations *services.ConfirmationService
}

func NewBookingHandler(db *gorm.DB, bookings *services.BookingService, confirmations *services.ConfirmationService) *BookingHandler {
	return &BookingHandler{db: db, bookings: bookings, confirmations: confirmations}
}

// CreateBooking creates one booking document per boat in the request
// and enqueues a confirmation task for each document.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req services.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ClientName == "" || len(req.Boats) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "client_name and at least one boat are required")
	}

	created, err := h.bookings.CreateBookings(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create booking")
	}

	if err := tasks.EnqueueBookingConfirmations(h.db, created); err != nil {
		// The documents exist; confirmation delivery can be triggered
		// manually through the resend endpoint.
		logrus.Errorf("failed to enqueue confirmation tasks: %v", err)
	}

	return c.JSON(http.StatusCreated, created)
}

// GetBooking returns one booking document with its payment entries.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := parseBookingID(c)
	if err != nil {
		return err
	}

	var booking models.Booking
	if err := h.db.WithContext(c.Request().Context()).Preload("Payments").First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load booking")
	}

	return c.JSON(http.StatusOK, booking)
}

// ListBookings returns booking documents, newest first. An optional
// status filter accepts both canonical and legacy status names.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	query := h.db.WithContext(c.Request().Context()).Model(&models.Booking{}).Order("booking_date DESC")

	if status := c.QueryParam("payment_status"); status != "" {
		normalized, err := models.NormalizePaymentStatus(status)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		query = query.Where("payment_status = ?", normalized)
	}

	var bookings []models.Booking
	if err := query.Preload("Payments").Find(&bookings).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list bookings")
	}

	return c.JSON(http.StatusOK, bookings)
}

// UpdateBookingPayments replaces the booking's itemized payment entries
// and returns the document with recomputed totals.
func (h *BookingHandler) UpdateBookingPayments(c echo.Context) error {
	id, err := parseBookingID(c)
	if err != nil {
		return err
	}

	var req struct {
		Payments []services.PaymentEntryInput `json:"payments"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.bookings.ReplacePayments(c.Request().Context(), id, req.Payments)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update payments")
	}

	return c.JSON(http.StatusOK, booking)
}

// SendConfirmation triggers confirmation delivery for one booking
// immediately, bypassing the task queue. The group dedup marker still
// applies, so a grouped sibling whose combined email already went out
// reports a duplicate instead of sending again.
func (h *BookingHandler) SendConfirmation(c echo.Context) error {
	id, err := parseBookingID(c)
	if err != nil {
		return err
	}

	result, err := h.confirmations.SendBookingConfirmation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to send confirmation")
	}

	return c.JSON(http.StatusOK, result)
}

func parseBookingID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}
	return uint(id), nil
}

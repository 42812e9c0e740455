package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"charter_backoffice/internal/config"
	"charter_backoffice/internal/models"
	"charter_backoffice/internal/services"
)

type PaymentLinkHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
	links *services.PaymentLinkService
	cfg   config.Config
}

func NewPaymentLinkHandler(db *gorm.DB, cache *services.RedisCache, links *services.PaymentLinkService, cfg config.Config) *PaymentLinkHandler {
	return &PaymentLinkHandler{db: db, cache: cache, links: links, cfg: cfg}
}

// CreatePaymentLinkRequest is the JSON body of the create endpoint.
type CreatePaymentLinkRequest struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	BookingID     *uint   `json:"booking_id,omitempty"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
}

// CreatePaymentLink creates a provider-hosted payment link. Staff and
// admin roles only (enforced by route middleware).
func (h *PaymentLinkHandler) CreatePaymentLink(c echo.Context) error {
	var req CreatePaymentLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.links.CreateLink(c.Request().Context(), services.CreateLinkRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		BookingID:     req.BookingID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		RedirectURL:   h.cfg.AppURL + "/payment-complete",
		CreatedBy:     getStringFromContext(c, "userUID"),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrProviderNotConfigured):
			return echo.NewHTTPError(http.StatusPreconditionFailed, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create payment link: "+err.Error())
		}
	}

	return c.JSON(http.StatusOK, result)
}

// GetPaymentLink returns the local record of a link, with a short
// read-side cache so status polling from the UI is cheap.
func (h *PaymentLinkHandler) GetPaymentLink(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "link id is required")
	}

	fetch := func() (models.PaymentLink, error) {
		var link models.PaymentLink
		err := h.db.WithContext(c.Request().Context()).Where("id = ?", id).First(&link).Error
		return link, err
	}

	var link models.PaymentLink
	var err error
	if h.cache != nil {
		link, err = services.GetOrSet(h.cache, c.Request().Context(), "payment_link:"+id, 30*time.Second, fetch)
	} else {
		link, err = fetch()
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "payment link not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch payment link")
	}

	return c.JSON(http.StatusOK, link)
}

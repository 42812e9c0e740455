package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"charter_backoffice/internal/models"
)

// BookingService owns booking documents and keeps their derived payment
// fields consistent. Every mutation path that touches payment entries
// recomputes the aggregate through models.AggregatePayments.
type BookingService struct {
	db *gorm.DB
}

func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{db: db}
}

// BoatRequest is one boat of a create request.
type BoatRequest struct {
	BoatName    string    `json:"boat_name"`
	AgreedPrice float64   `json:"agreed_price"`
	BookingDate time.Time `json:"booking_date"`
}

// CreateBookingRequest creates one booking document per boat. Multiple
// boats form a booking group sharing one group id.
type CreateBookingRequest struct {
	ClientName  string        `json:"client_name"`
	ClientEmail string        `json:"client_email"`
	ClientPhone string        `json:"client_phone"`
	Boats       []BoatRequest `json:"boats"`
}

// CreateBookings persists the documents of a reservation. Siblings of a
// multi-boat reservation get the same MultiBoatGroupID so the
// confirmation flow can treat them as one logical booking.
func (s *BookingService) CreateBookings(ctx context.Context, req CreateBookingRequest) ([]models.Booking, error) {
	if len(req.Boats) == 0 {
		return nil, fmt.Errorf("at least one boat is required")
	}

	var groupID *string
	multi := len(req.Boats) > 1
	if multi {
		gid := uuid.NewString()
		groupID = &gid
	}

	bookings := make([]models.Booking, 0, len(req.Boats))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, boat := range req.Boats {
			booking := models.Booking{
				ClientName:               req.ClientName,
				ClientEmail:              req.ClientEmail,
				ClientPhone:              req.ClientPhone,
				BoatName:                 boat.BoatName,
				BookingDate:              boat.BookingDate,
				AgreedPrice:              boat.AgreedPrice,
				PaymentStatus:            models.BookingPaymentNone,
				MultiBoatGroupID:         groupID,
				IsPartOfMultiBoatBooking: multi,
			}
			if err := tx.Create(&booking).Error; err != nil {
				return err
			}
			bookings = append(bookings, booking)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bookings: %w", err)
	}

	return bookings, nil
}

// PaymentEntryInput is one itemized payment as edited through the UI.
type PaymentEntryInput struct {
	Type     models.PaymentEntryType `json:"type"`
	Amount   float64                 `json:"amount"`
	Method   string                  `json:"method"`
	Received bool                    `json:"received"`
	Date     time.Time               `json:"date"`
}

// ReplacePayments replaces a booking's payment entries and recomputes
// the derived totals.
func (s *BookingService) ReplacePayments(ctx context.Context, bookingID uint, entries []PaymentEntryInput) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	newEntries := make([]models.PaymentEntry, 0, len(entries))
	for _, in := range entries {
		entryType := in.Type
		if entryType == "" {
			entryType = models.PaymentEntryFirst
		}
		newEntries = append(newEntries, models.PaymentEntry{
			BookingID: bookingID,
			Type:      entryType,
			Amount:    in.Amount,
			Method:    in.Method,
			Received:  in.Received,
			Date:      in.Date,
		})
	}

	totalPaid, status := models.AggregatePayments(newEntries, booking.AgreedPrice)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", bookingID).Delete(&models.PaymentEntry{}).Error; err != nil {
			return err
		}
		if len(newEntries) > 0 {
			if err := tx.Create(&newEntries).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Booking{}).Where("id = ?", bookingID).Updates(map[string]interface{}{
			"total_paid":     totalPaid,
			"payment_status": status,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace payments: %w", err)
	}

	for _, e := range newEntries {
		if !e.Received {
			continue
		}
		s.appendLedger(ctx, bookingID, models.PaymentEventManualEntry, e.Amount)
	}

	booking.Payments = newEntries
	booking.TotalPaid = totalPaid
	booking.PaymentStatus = status
	return &booking, nil
}

// ApplyLinkPayment records a paid payment link against the owning
// booking: the matching outstanding entry is marked received, or a new
// entry is appended when none matches, and the aggregate is recomputed.
func (s *BookingService) ApplyLinkPayment(ctx context.Context, bookingID uint, amount float64, method string, paidAt time.Time) error {
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.Preload("Payments").First(&booking, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		matched := false
		for i := range booking.Payments {
			e := &booking.Payments[i]
			if !e.Received && e.Amount == amount {
				e.Received = true
				e.Method = method
				e.Date = paidAt
				if err := tx.Save(e).Error; err != nil {
					return err
				}
				matched = true
				break
			}
		}

		if !matched {
			entryType := models.PaymentEntryFirst
			for _, e := range booking.Payments {
				if e.Received {
					entryType = models.PaymentEntrySecond
					break
				}
			}
			entry := models.PaymentEntry{
				BookingID: bookingID,
				Type:      entryType,
				Amount:    amount,
				Method:    method,
				Received:  true,
				Date:      paidAt,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			booking.Payments = append(booking.Payments, entry)
		}

		totalPaid, status := models.AggregatePayments(booking.Payments, booking.AgreedPrice)
		return tx.Model(&models.Booking{}).Where("id = ?", bookingID).Updates(map[string]interface{}{
			"total_paid":     totalPaid,
			"payment_status": status,
		}).Error
	})
}

// RecomputeAggregate reloads a booking's entries and re-derives the
// stored totals, used after linked-order updates.
func (s *BookingService) RecomputeAggregate(ctx context.Context, bookingID uint) error {
	var booking models.Booking
	if err := s.db.WithContext(ctx).Preload("Payments").First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}

	totalPaid, status := models.AggregatePayments(booking.Payments, booking.AgreedPrice)
	return s.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", bookingID).Updates(map[string]interface{}{
		"total_paid":     totalPaid,
		"payment_status": status,
	}).Error
}

func (s *BookingService) appendLedger(ctx context.Context, bookingID uint, kind models.PaymentEventKind, amount float64) {
	event := models.PaymentEvent{
		Kind:      kind,
		BookingID: &bookingID,
		Amount:    amount,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		logrus.WithField("booking_id", bookingID).Warnf("ledger append failed: %v", err)
	}
}

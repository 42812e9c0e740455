package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"charter_backoffice/internal/models"
)

// ConfirmationStore is the persistence surface of the confirmation flow.
// ClaimGroupMarker must be an atomic create-if-absent.
type ConfirmationStore interface {
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	ClaimGroupMarker(ctx context.Context, groupID string, bookingID uint) (bool, error)
	ReleaseGroupMarker(ctx context.Context, groupID string) error
	SiblingBookings(ctx context.Context, groupID string) ([]models.Booking, error)
	MarkEmailSent(ctx context.Context, bookingID uint) error
	MarkGroupEmailSent(ctx context.Context, groupID string) error
}

// ConfirmationService guarantees a single confirmation email per logical
// booking. Multi-boat reservations are stored as sibling documents that
// each fire their own creation trigger; exactly one of them may send the
// combined email.
type ConfirmationService struct {
	store ConfirmationStore
	email EmailSender
}

func NewConfirmationService(store ConfirmationStore, email EmailSender) *ConfirmationService {
	return &ConfirmationService{store: store, email: email}
}

// ConfirmationResult reports what a trigger did.
type ConfirmationResult struct {
	Sent      bool   `json:"sent"`
	Duplicate bool   `json:"duplicate"`
	Provider  string `json:"provider"`
}

// SendBookingConfirmation processes one booking-created trigger.
//
// Single-boat bookings send directly and mark the document. For grouped
// bookings the group marker is claimed with an atomic create-if-absent
// write; a losing trigger is a duplicate arrival and sends nothing. The
// email is sent only inside the branch that created the marker, and a
// failed send releases the marker again so the group is not permanently
// blocked.
func (s *ConfirmationService) SendBookingConfirmation(ctx context.Context, bookingID uint) (*ConfirmationResult, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.MultiBoatGroupID == nil {
		if booking.EmailSent {
			return &ConfirmationResult{Duplicate: true}, nil
		}

		subject, body := buildConfirmation([]models.Booking{*booking})
		if err := s.email.Send([]string{booking.ClientEmail}, subject, body); err != nil {
			return nil, fmt.Errorf("confirmation send failed: %w", err)
		}
		if err := s.store.MarkEmailSent(ctx, booking.ID); err != nil {
			return nil, fmt.Errorf("failed to mark booking after send: %w", err)
		}
		return &ConfirmationResult{Sent: true, Provider: "email"}, nil
	}

	groupID := *booking.MultiBoatGroupID

	claimed, err := s.store.ClaimGroupMarker(ctx, groupID, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("marker claim failed: %w", err)
	}
	if !claimed {
		// Another boat in the group was processed first, or this boat's
		// creation event fired twice.
		logrus.WithField("group_id", groupID).Info("group confirmation already claimed, skipping send")
		if err := s.store.MarkGroupEmailSent(ctx, groupID); err != nil {
			return nil, fmt.Errorf("failed to mark duplicate arrival: %w", err)
		}
		return &ConfirmationResult{Duplicate: true}, nil
	}

	siblings, err := s.store.SiblingBookings(ctx, groupID)
	if err != nil {
		s.releaseMarker(ctx, groupID)
		return nil, fmt.Errorf("failed to load group siblings: %w", err)
	}

	subject, body := buildConfirmation(siblings)
	if err := s.email.Send([]string{booking.ClientEmail}, subject, body); err != nil {
		s.releaseMarker(ctx, groupID)
		return nil, fmt.Errorf("group confirmation send failed: %w", err)
	}

	if err := s.store.MarkGroupEmailSent(ctx, groupID); err != nil {
		return nil, fmt.Errorf("failed to mark group after send: %w", err)
	}

	return &ConfirmationResult{Sent: true, Provider: "email"}, nil
}

func (s *ConfirmationService) releaseMarker(ctx context.Context, groupID string) {
	if err := s.store.ReleaseGroupMarker(ctx, groupID); err != nil {
		logrus.WithField("group_id", groupID).Errorf("compensating marker delete failed: %v", err)
	}
}

// buildConfirmation renders the plain-text confirmation covering every
// boat of the reservation.
func buildConfirmation(bookings []models.Booking) (subject, body string) {
	if len(bookings) == 0 {
		return "Booking confirmation", ""
	}

	first := bookings[0]
	if len(bookings) == 1 {
		subject = fmt.Sprintf("Booking confirmation - %s", first.BoatName)
	} else {
		subject = fmt.Sprintf("Booking confirmation - %d boats", len(bookings))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Dear %s,\n\nYour charter booking is confirmed.\n\n", first.ClientName)
	var total float64
	for _, b := range bookings {
		fmt.Fprintf(&sb, "- %s on %s, agreed price %.2f\n", b.BoatName, b.BookingDate.Format("02 Jan 2006"), b.AgreedPrice)
		total += b.AgreedPrice
	}
	if len(bookings) > 1 {
		fmt.Fprintf(&sb, "\nTotal agreed price: %.2f\n", total)
	}
	sb.WriteString("\nWe look forward to welcoming you aboard.\n")

	return subject, sb.String()
}

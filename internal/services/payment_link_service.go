package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"charter_backoffice/internal/models"
)

// LinkStore is the persistence surface the payment-link flows need.
// Get returns nil (not an error) for an unknown id.
type LinkStore interface {
	Get(ctx context.Context, id string) (*models.PaymentLink, error)
	GetByLegacyRef(ctx context.Context, ref string) (*models.PaymentLink, error)
	Create(ctx context.Context, link *models.PaymentLink) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	ListNonTerminal(ctx context.Context, limit int) ([]models.PaymentLink, error)
	AppendEvent(ctx context.Context, event models.PaymentEvent) error
	RecordFailure(ctx context.Context, scope, itemKey string, cause error) error
	ClearFailure(ctx context.Context, scope, itemKey string) error
}

// BookingUpdater propagates a paid link into the owning booking's
// payment entries.
type BookingUpdater interface {
	ApplyLinkPayment(ctx context.Context, bookingID uint, amount float64, method string, paidAt time.Time) error
}

// PaymentLinkService issues provider-hosted payment links and owns the
// one transition function every status source goes through.
type PaymentLinkService struct {
	store    LinkStore
	provider PaymentProvider
	bookings BookingUpdater
}

func NewPaymentLinkService(store LinkStore, provider PaymentProvider, bookings BookingUpdater) *PaymentLinkService {
	return &PaymentLinkService{store: store, provider: provider, bookings: bookings}
}

// CreateLinkRequest is the input of the issuer.
type CreateLinkRequest struct {
	Amount        float64
	Currency      string
	BookingID     *uint
	CustomerName  string
	CustomerEmail string
	RedirectURL   string
	CreatedBy     string
}

// CreateLinkResult is what interactive callers receive back.
type CreateLinkResult struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// CreateLink creates a provider-hosted link for a single line item, then
// persists the local record keyed by the provider's link id. No local
// record is written before the provider confirms the link, so a provider
// failure leaves nothing orphaned behind.
func (s *PaymentLinkService) CreateLink(ctx context.Context, req CreateLinkRequest) (*CreateLinkResult, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if s.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	currency := req.Currency
	if currency == "" {
		currency = "eur"
	}

	description := "Charter payment"
	if req.CustomerName != "" {
		description = fmt.Sprintf("Charter payment - %s", req.CustomerName)
	}

	metadata := map[string]string{}
	if req.BookingID != nil {
		metadata["booking_id"] = strconv.FormatUint(uint64(*req.BookingID), 10)
	}
	if req.CustomerEmail != "" {
		metadata["customer_email"] = req.CustomerEmail
	}

	providerLink, err := s.provider.CreatePaymentLink(ctx, CreateLinkParams{
		Amount:      req.Amount,
		Currency:    currency,
		Description: description,
		Metadata:    metadata,
		RedirectURL: req.RedirectURL,
	})
	if err != nil {
		return nil, fmt.Errorf("provider link creation failed: %w", err)
	}

	record := &models.PaymentLink{
		ID:            providerLink.ID,
		Amount:        req.Amount,
		Currency:      currency,
		BookingID:     req.BookingID,
		URL:           providerLink.URL,
		Active:        providerLink.Active,
		PaymentStatus: models.PaymentStatusPending,
		ExpiresAt:     providerLink.ExpiresAt,
		CreatedBy:     req.CreatedBy,
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist payment link record: %w", err)
	}

	s.appendLedger(ctx, models.PaymentEvent{
		Kind:      models.PaymentEventLinkIssued,
		BookingID: req.BookingID,
		LinkID:    providerLink.ID,
		Amount:    req.Amount,
		Currency:  currency,
	})

	// Best-effort backfill of correlation metadata onto the provider
	// object. The local record is already authoritative, so a failure
	// here is logged and swallowed.
	backfill := map[string]string{"payment_link_id": providerLink.ID}
	if req.BookingID != nil {
		backfill["booking_id"] = metadata["booking_id"]
	}
	if err := s.provider.UpdateLink(ctx, providerLink.ID, nil, backfill); err != nil {
		logrus.WithField("link_id", providerLink.ID).Warnf("metadata backfill failed: %v", err)
	}

	return &CreateLinkResult{
		ID:        providerLink.ID,
		URL:       providerLink.URL,
		Amount:    req.Amount,
		Currency:  currency,
		ExpiresAt: providerLink.ExpiresAt,
	}, nil
}

// ApplyPaymentStatus is the shared transition function. The webhook
// ingress and the reconciliation sweep both land here, so whichever
// arrives first or last converges to the same record state.
func (s *PaymentLinkService) ApplyPaymentStatus(ctx context.Context, linkID string, newStatus models.PaymentStatus, snap models.EventSnapshot) error {
	record, err := s.store.Get(ctx, linkID)
	if err != nil {
		return fmt.Errorf("link lookup failed: %w", err)
	}
	if record == nil {
		// Records created before the key alignment are found through the
		// legacy order reference.
		record, err = s.store.GetByLegacyRef(ctx, linkID)
		if err != nil {
			return fmt.Errorf("legacy link lookup failed: %w", err)
		}
	}
	if record == nil {
		// Unknown link is not worth failing a webhook over.
		logrus.WithField("link_id", linkID).Info("ignoring event for unknown payment link")
		return nil
	}

	tr := models.ComputeTransition(*record, newStatus, snap)
	if !tr.Changed {
		logrus.WithField("link_id", record.ID).Debug("duplicate payment event, no-op")
		return nil
	}

	if err := s.store.Update(ctx, record.ID, tr.Updates); err != nil {
		return fmt.Errorf("failed to update payment link record: %w", err)
	}

	if !tr.BecamePaid {
		return nil
	}

	paidAt, _ := tr.Updates["paid_at"].(time.Time)

	s.appendLedger(ctx, models.PaymentEvent{
		Kind:      models.PaymentEventLinkPaid,
		BookingID: record.BookingID,
		LinkID:    record.ID,
		Amount:    record.Amount,
		Currency:  record.Currency,
	})

	if record.BookingID != nil && s.bookings != nil {
		if err := s.bookings.ApplyLinkPayment(ctx, *record.BookingID, record.Amount, "payment_link", paidAt); err != nil {
			logrus.WithField("booking_id", *record.BookingID).Errorf("failed to apply link payment to booking: %v", err)
		}
	}

	// Deactivate the provider-side link so it cannot be paid twice.
	// Local state does not depend on this succeeding.
	if s.provider != nil {
		inactive := false
		if err := s.provider.UpdateLink(ctx, record.ID, &inactive, nil); err != nil {
			logrus.WithField("link_id", record.ID).Warnf("provider link deactivation failed: %v", err)
		}
	}

	return nil
}

const reconcileScope = "reconcile_payment_links"

// ReconcileReport summarizes one reconciliation sweep.
type ReconcileReport struct {
	Checked     int `json:"checked"`
	Transitions int `json:"transitions"`
	NoSession   int `json:"no_session"`
	Failures    int `json:"failures"`
}

// ReconcileLinks re-queries the provider for every link still in a
// non-terminal state and pushes the observed session through the same
// transition function as the webhook path. Per-record failures are
// isolated; a link that keeps failing gets a dead-letter row.
func (s *PaymentLinkService) ReconcileLinks(ctx context.Context, batchSize int) (ReconcileReport, error) {
	report := ReconcileReport{}

	if s.provider == nil {
		logrus.Warn("reconciliation skipped: payment provider not configured")
		return report, nil
	}

	links, err := s.store.ListNonTerminal(ctx, batchSize)
	if err != nil {
		return report, fmt.Errorf("failed to query non-terminal links: %w", err)
	}

	for _, link := range links {
		report.Checked++

		session, err := s.provider.LatestSession(ctx, link.ID)
		if err != nil {
			report.Failures++
			logrus.WithField("link_id", link.ID).Errorf("session lookup failed: %v", err)
			if dlErr := s.store.RecordFailure(ctx, reconcileScope, link.ID, err); dlErr != nil {
				logrus.WithField("link_id", link.ID).Warnf("dead-letter record failed: %v", dlErr)
			}
			continue
		}
		if session == nil {
			// Nobody opened the link yet, leave it alone.
			report.NoSession++
			continue
		}

		err = s.ApplyPaymentStatus(ctx, link.ID, session.PaymentStatus, models.EventSnapshot{
			SessionID:       session.ID,
			PaymentIntentID: session.PaymentIntentID,
			OccurredAt:      session.CreatedAt,
		})
		if err != nil {
			report.Failures++
			logrus.WithField("link_id", link.ID).Errorf("reconcile transition failed: %v", err)
			if dlErr := s.store.RecordFailure(ctx, reconcileScope, link.ID, err); dlErr != nil {
				logrus.WithField("link_id", link.ID).Warnf("dead-letter record failed: %v", dlErr)
			}
			continue
		}

		report.Transitions++
		if err := s.store.ClearFailure(ctx, reconcileScope, link.ID); err != nil {
			logrus.WithField("link_id", link.ID).Warnf("dead-letter clear failed: %v", err)
		}
	}

	return report, nil
}

func (s *PaymentLinkService) appendLedger(ctx context.Context, event models.PaymentEvent) {
	if err := s.store.AppendEvent(ctx, event); err != nil {
		logrus.WithField("link_id", event.LinkID).Warnf("ledger append failed: %v", err)
	}
}

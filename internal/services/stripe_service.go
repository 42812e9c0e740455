package services

import (
	"context"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"charter_backoffice/internal/config"
	"charter_backoffice/internal/models"
)

// ProviderLink is the provider-hosted payment link as seen locally.
type ProviderLink struct {
	ID        string
	URL       string
	Active    bool
	ExpiresAt *time.Time
}

// ProviderSession is the most recent checkout attempt on a link.
type ProviderSession struct {
	ID              string
	PaymentIntentID string
	PaymentStatus   models.PaymentStatus
	CreatedAt       time.Time
}

// CreateLinkParams describes the single line item a hosted link charges.
type CreateLinkParams struct {
	Amount      float64
	Currency    string
	Description string
	Metadata    map[string]string
	RedirectURL string
}

// PaymentProvider abstracts the payment provider so the issuer, the
// reconciliation sweep, and tests can share one contract.
type PaymentProvider interface {
	CreatePaymentLink(ctx context.Context, params CreateLinkParams) (*ProviderLink, error)
	UpdateLink(ctx context.Context, id string, active *bool, metadata map[string]string) error
	// LatestSession returns the newest checkout session for a link, or
	// nil when the link has not been opened yet.
	LatestSession(ctx context.Context, linkID string) (*ProviderSession, error)
}

// StripeService implements PaymentProvider on the Stripe API.
type StripeService struct {
	api *client.API
}

// NewStripeService returns nil when no secret key is configured; callers
// treat a nil provider as a precondition failure.
func NewStripeService(cfg config.Config) *StripeService {
	if cfg.StripeSecretKey == "" {
		return nil
	}
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)
	return &StripeService{api: api}
}

func (s *StripeService) CreatePaymentLink(ctx context.Context, params CreateLinkParams) (*ProviderLink, error) {
	// Hosted links charge a Price object, so one is created per link.
	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(params.Currency),
		UnitAmount: stripe.Int64(toMinorUnits(params.Amount)),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(params.Description),
		},
	}
	priceParams.Context = ctx

	price, err := s.api.Prices.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("stripe price create failed: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(price.ID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	linkParams.Context = ctx
	for k, v := range params.Metadata {
		linkParams.AddMetadata(k, v)
	}
	if params.RedirectURL != "" {
		linkParams.AfterCompletion = &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String(string(stripe.PaymentLinkAfterCompletionTypeRedirect)),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(params.RedirectURL),
			},
		}
	}

	link, err := s.api.PaymentLinks.New(linkParams)
	if err != nil {
		return nil, fmt.Errorf("stripe payment link create failed: %w", err)
	}

	return &ProviderLink{ID: link.ID, URL: link.URL, Active: link.Active}, nil
}

func (s *StripeService) UpdateLink(ctx context.Context, id string, active *bool, metadata map[string]string) error {
	params := &stripe.PaymentLinkParams{}
	params.Context = ctx
	if active != nil {
		params.Active = stripe.Bool(*active)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	if _, err := s.api.PaymentLinks.Update(id, params); err != nil {
		return fmt.Errorf("stripe payment link update failed: %w", err)
	}
	return nil
}

func (s *StripeService) LatestSession(ctx context.Context, linkID string) (*ProviderSession, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentLink: stripe.String(linkID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := s.api.CheckoutSessions.List(params)
	for iter.Next() {
		return sessionFromStripe(iter.CheckoutSession()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe session list failed: %w", err)
	}
	return nil, nil
}

func sessionFromStripe(cs *stripe.CheckoutSession) *ProviderSession {
	session := &ProviderSession{
		ID:            cs.ID,
		PaymentStatus: MapSessionStatus(cs),
		CreatedAt:     time.Unix(cs.Created, 0),
	}
	if cs.PaymentIntent != nil {
		session.PaymentIntentID = cs.PaymentIntent.ID
	}
	return session
}

// MapSessionStatus folds a checkout session into the canonical link
// status: settled sessions are paid, expired ones failed, anything else
// still pending.
func MapSessionStatus(cs *stripe.CheckoutSession) models.PaymentStatus {
	switch {
	case cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return models.PaymentStatusPaid
	case cs.Status == stripe.CheckoutSessionStatusExpired:
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}

// toMinorUnits converts a decimal amount to the provider's integer minor
// units (cents).
func toMinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

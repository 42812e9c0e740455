package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"charter_backoffice/internal/models"
)

// GormLinkStore implements LinkStore on the Postgres document store.
type GormLinkStore struct {
	db *gorm.DB
}

func NewGormLinkStore(db *gorm.DB) *GormLinkStore {
	return &GormLinkStore{db: db}
}

func (s *GormLinkStore) Get(ctx context.Context, id string) (*models.PaymentLink, error) {
	var link models.PaymentLink
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *GormLinkStore) GetByLegacyRef(ctx context.Context, ref string) (*models.PaymentLink, error) {
	if ref == "" {
		return nil, nil
	}
	var link models.PaymentLink
	err := s.db.WithContext(ctx).Where("legacy_order_ref = ?", ref).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *GormLinkStore) Create(ctx context.Context, link *models.PaymentLink) error {
	return s.db.WithContext(ctx).Create(link).Error
}

func (s *GormLinkStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&models.PaymentLink{}).Where("id = ?", id).Updates(updates).Error
}

func (s *GormLinkStore) ListNonTerminal(ctx context.Context, limit int) ([]models.PaymentLink, error) {
	var links []models.PaymentLink
	err := s.db.WithContext(ctx).
		Where("payment_status IN ?", []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusFailed}).
		Order("created_at asc").
		Limit(limit).
		Find(&links).Error
	return links, err
}

func (s *GormLinkStore) AppendEvent(ctx context.Context, event models.PaymentEvent) error {
	return s.db.WithContext(ctx).Create(&event).Error
}

func (s *GormLinkStore) RecordFailure(ctx context.Context, scope, itemKey string, cause error) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}, {Name: "item_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"failures":   gorm.Expr("dead_letters.failures + 1"),
			"last_error": cause.Error(),
		}),
	}).Create(&models.DeadLetter{
		Scope:     scope,
		ItemKey:   itemKey,
		Failures:  1,
		LastError: cause.Error(),
	}).Error
}

func (s *GormLinkStore) ClearFailure(ctx context.Context, scope, itemKey string) error {
	return s.db.WithContext(ctx).
		Where("scope = ? AND item_key = ?", scope, itemKey).
		Delete(&models.DeadLetter{}).Error
}

// GormConfirmationStore implements ConfirmationStore.
type GormConfirmationStore struct {
	db *gorm.DB
}

func NewGormConfirmationStore(db *gorm.DB) *GormConfirmationStore {
	return &GormConfirmationStore{db: db}
}

func (s *GormConfirmationStore) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Preload("Payments").First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ClaimGroupMarker atomically creates the marker row for a group. The
// insert-if-absent is the exactly-once gate: only the trigger whose
// insert actually lands is allowed to send the group email.
func (s *GormConfirmationStore) ClaimGroupMarker(ctx context.Context, groupID string, bookingID uint) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&models.GroupEmailMarker{
		GroupID: groupID,
		SentBy:  bookingID,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseGroupMarker is the compensating delete after a failed send.
func (s *GormConfirmationStore) ReleaseGroupMarker(ctx context.Context, groupID string) error {
	return s.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&models.GroupEmailMarker{}).Error
}

func (s *GormConfirmationStore) SiblingBookings(ctx context.Context, groupID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Payments").
		Where("multi_boat_group_id = ?", groupID).
		Order("id asc").
		Find(&bookings).Error
	return bookings, err
}

func (s *GormConfirmationStore) MarkEmailSent(ctx context.Context, bookingID uint) error {
	return s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("email_sent", true).Error
}

func (s *GormConfirmationStore) MarkGroupEmailSent(ctx context.Context, groupID string) error {
	return s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("multi_boat_group_id = ?", groupID).
		Update("email_sent_in_group", true).Error
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charter_backoffice/internal/models"
)

type confirmationStoreFake struct {
	mu       sync.Mutex
	bookings map[uint]*models.Booking
	markers  map[string]uint
}

func newConfirmationStoreFake(bookings ...*models.Booking) *confirmationStoreFake {
	f := &confirmationStoreFake{
		bookings: map[uint]*models.Booking{},
		markers:  map[string]uint{},
	}
	for _, b := range bookings {
		f.bookings[b.ID] = b
	}
	return f
}

func (f *confirmationStoreFake) GetBooking(_ context.Context, id uint) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *confirmationStoreFake) ClaimGroupMarker(_ context.Context, groupID string, bookingID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.markers[groupID]; exists {
		return false, nil
	}
	f.markers[groupID] = bookingID
	return true, nil
}

func (f *confirmationStoreFake) ReleaseGroupMarker(_ context.Context, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.markers, groupID)
	return nil
}

func (f *confirmationStoreFake) SiblingBookings(_ context.Context, groupID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.MultiBoatGroupID != nil && *b.MultiBoatGroupID == groupID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *confirmationStoreFake) MarkEmailSent(_ context.Context, bookingID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[bookingID]; ok {
		b.EmailSent = true
	}
	return nil
}

func (f *confirmationStoreFake) MarkGroupEmailSent(_ context.Context, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.MultiBoatGroupID != nil && *b.MultiBoatGroupID == groupID {
			b.EmailSentInGroup = true
		}
	}
	return nil
}

type emailMock struct {
	mu    sync.Mutex
	sends []string
	err   error
}

func (m *emailMock) Send(to []string, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sends = append(m.sends, subject)
	return nil
}

func TestSingleBookingConfirmation(t *testing.T) {
	ctx := context.Background()
	store := newConfirmationStoreFake(&models.Booking{
		ID: 1, ClientName: "Jamie", ClientEmail: "jamie@example.com", BoatName: "Aurora",
	})
	email := &emailMock{}
	svc := NewConfirmationService(store, email)

	result, err := svc.SendBookingConfirmation(ctx, 1)
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Len(t, email.sends, 1)
	assert.True(t, store.bookings[1].EmailSent)

	// second trigger for the same document is a no-op
	result, err = svc.SendBookingConfirmation(ctx, 1)
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Len(t, email.sends, 1)
}

func TestGroupConfirmationExactlyOnce(t *testing.T) {
	ctx := context.Background()
	gid := "group-1"
	store := newConfirmationStoreFake(
		&models.Booking{ID: 1, ClientName: "Jamie", ClientEmail: "jamie@example.com", BoatName: "Aurora", MultiBoatGroupID: &gid, IsPartOfMultiBoatBooking: true},
		&models.Booking{ID: 2, ClientName: "Jamie", ClientEmail: "jamie@example.com", BoatName: "Boreas", MultiBoatGroupID: &gid, IsPartOfMultiBoatBooking: true},
		&models.Booking{ID: 3, ClientName: "Jamie", ClientEmail: "jamie@example.com", BoatName: "Calypso", MultiBoatGroupID: &gid, IsPartOfMultiBoatBooking: true},
	)
	email := &emailMock{}
	svc := NewConfirmationService(store, email)

	// three sibling creation triggers arrive sequentially
	for _, id := range []uint{1, 2, 3} {
		_, err := svc.SendBookingConfirmation(ctx, id)
		require.NoError(t, err)
	}

	assert.Len(t, email.sends, 1, "exactly one combined email for the group")
	for _, id := range []uint{1, 2, 3} {
		assert.True(t, store.bookings[id].EmailSentInGroup, "booking %d marked", id)
	}
}

func TestGroupConfirmationCoversEveryBoat(t *testing.T) {
	ctx := context.Background()
	gid := "group-2"
	store := newConfirmationStoreFake(
		&models.Booking{ID: 1, ClientName: "Sam", ClientEmail: "sam@example.com", BoatName: "Aurora", AgreedPrice: 900, MultiBoatGroupID: &gid},
		&models.Booking{ID: 2, ClientName: "Sam", ClientEmail: "sam@example.com", BoatName: "Boreas", AgreedPrice: 1100, MultiBoatGroupID: &gid},
	)
	email := &emailMock{}
	svc := NewConfirmationService(store, email)

	result, err := svc.SendBookingConfirmation(ctx, 2)
	require.NoError(t, err)
	assert.True(t, result.Sent)
	require.Len(t, email.sends, 1)
	assert.Equal(t, "Booking confirmation - 2 boats", email.sends[0])
}

func TestGroupConfirmationSendFailureReleasesMarker(t *testing.T) {
	ctx := context.Background()
	gid := "group-3"
	store := newConfirmationStoreFake(
		&models.Booking{ID: 1, ClientName: "Sam", ClientEmail: "sam@example.com", BoatName: "Aurora", MultiBoatGroupID: &gid},
	)
	email := &emailMock{err: errors.New("SMTP unavailable")}
	svc := NewConfirmationService(store, email)

	_, err := svc.SendBookingConfirmation(ctx, 1)
	require.Error(t, err)
	assert.Empty(t, store.markers, "marker released so a retry can send")
	assert.False(t, store.bookings[1].EmailSentInGroup)

	// transient failure clears, retry succeeds
	email.err = nil
	result, err := svc.SendBookingConfirmation(ctx, 1)
	require.NoError(t, err)
	assert.True(t, result.Sent)
}

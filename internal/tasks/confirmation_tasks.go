package tasks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"charter_backoffice/internal/models"
	"charter_backoffice/internal/services"
)

// SendBookingConfirmationTaskDef delivers the confirmation email for a
// newly created booking document. One task is enqueued per document;
// the confirmation service dedupes grouped siblings.
type SendBookingConfirmationTaskDef struct {
	deps Deps
}

// TaskID returns the unique identifier for this task.
func (t *SendBookingConfirmationTaskDef) TaskID() string {
	return "send_booking_confirmation"
}

// CreateTask builds a one-time ScheduledTask for a booking document.
func (t *SendBookingConfirmationTaskDef) CreateTask(bookingID uint) (*models.ScheduledTask, error) {
	args := map[string]interface{}{"booking_id": bookingID}
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution processes one booking-created trigger.
func (t *SendBookingConfirmationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	raw, ok := task.Arguments["booking_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("booking_id not provided or invalid")
	}
	bookingID := uint(raw)

	svc := services.NewConfirmationService(services.NewGormConfirmationStore(db), t.deps.Email)
	result, err := svc.SendBookingConfirmation(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"sent":      result.Sent,
		"duplicate": result.Duplicate,
	}, nil
}

// EnqueueBookingConfirmations creates one confirmation task per created
// booking document, mirroring per-document creation triggers.
func EnqueueBookingConfirmations(db *gorm.DB, bookings []models.Booking) error {
	def := &SendBookingConfirmationTaskDef{}
	for _, booking := range bookings {
		task, err := def.CreateTask(booking.ID)
		if err != nil {
			return err
		}
		if err := db.Create(task).Error; err != nil {
			return fmt.Errorf("failed to enqueue confirmation task for booking %d: %w", booking.ID, err)
		}
	}
	return nil
}

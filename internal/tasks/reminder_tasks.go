package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"charter_backoffice/internal/models"
)

// ReminderPolicy holds the window and cooldown knobs of the reminder
// sweep.
type ReminderPolicy struct {
	LookaheadDays int
	CooldownHours int
}

// midnight truncates a time to the start of its day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysUntil is the whole-day, midnight-aligned distance from now to the
// booking date. Negative for past bookings.
func DaysUntil(bookingDate, now time.Time) int {
	return int(midnight(bookingDate).Sub(midnight(now)).Hours() / 24)
}

// EvaluateReminder decides whether a booking is due a payment reminder.
// Pure: all sweep callers and tests get identical decisions for the
// same inputs. Returns the skip reason when not eligible.
func EvaluateReminder(b models.Booking, now time.Time, policy ReminderPolicy) (bool, string) {
	if b.ClientEmail == "" {
		return false, "no_email"
	}

	daysUntil := DaysUntil(b.BookingDate, now)
	if daysUntil > policy.LookaheadDays {
		return false, "window_not_open"
	}
	if daysUntil < -1 {
		return false, "too_far_past"
	}

	if b.BalanceDue() <= 0 {
		return false, "no_balance"
	}

	if b.LastReminderSentAt != nil {
		cooldown := time.Duration(policy.CooldownHours) * time.Hour
		if now.Sub(*b.LastReminderSentAt) < cooldown {
			return false, "cooldown"
		}
	}

	return true, ""
}

// PaymentReminderTaskDef is the daily sweep that nudges clients with an
// outstanding balance. At most one reminder per cooldown interval per
// booking.
type PaymentReminderTaskDef struct {
	deps Deps
}

// TaskID returns the unique identifier for this task.
func (t *PaymentReminderTaskDef) TaskID() string {
	return "payment_reminder_sweep"
}

// HandleExecution runs one reminder sweep.
func (t *PaymentReminderTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	now := time.Now()
	policy := ReminderPolicy{
		LookaheadDays: t.deps.Config.ReminderLookaheadDays,
		CooldownHours: t.deps.Config.ReminderCooldownHours,
	}

	// Coarse SQL window; the precise policy runs per booking below.
	windowStart := midnight(now).AddDate(0, 0, -1)
	windowEnd := midnight(now).AddDate(0, 0, policy.LookaheadDays+1)

	var bookings []models.Booking
	err := db.WithContext(ctx).
		Where("payment_status IN ?", []models.BookingPaymentStatus{models.BookingPaymentNone, models.BookingPaymentPartial}).
		Where("booking_date >= ? AND booking_date < ?", windowStart, windowEnd).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query outstanding bookings: %w", err)
	}

	processed := 0
	sent := 0
	skipped := 0
	failed := 0

	for _, booking := range bookings {
		if ctx.Err() != nil {
			break
		}
		processed++

		eligible, reason := EvaluateReminder(booking, now, policy)
		if !eligible {
			skipped++
			appendReminderLog(db, booking.ID, models.ReminderStatusSkipped, reason)
			continue
		}

		status := t.sendReminder(booking)
		switch status {
		case models.ReminderStatusSent:
			sent++
		case models.ReminderStatusTemplateMissing:
			sent++ // degraded but counted as an attempt
		default:
			failed++
		}

		// Persisted regardless of outcome so the next daily run does not
		// hammer the same booking.
		updates := map[string]interface{}{
			"last_reminder_sent_at": now,
			"last_reminder_status":  status,
		}
		if err := db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(updates).Error; err != nil {
			logrus.WithField("booking_id", booking.ID).Errorf("failed to persist reminder state: %v", err)
		}
		appendReminderLog(db, booking.ID, status, "")
	}

	return map[string]interface{}{
		"processed": processed,
		"sent":      sent,
		"skipped":   skipped,
		"failed":    failed,
	}, nil
}

func (t *PaymentReminderTaskDef) sendReminder(booking models.Booking) string {
	template := t.deps.Config.ReminderTemplate
	if template == "" || t.deps.Email == nil {
		logrus.WithField("booking_id", booking.ID).Warn("reminder template or mail provider not configured")
		return models.ReminderStatusTemplateMissing
	}

	body := renderReminder(template, booking)
	subject := fmt.Sprintf("Payment reminder - %s charter", booking.BoatName)

	if err := t.deps.Email.Send([]string{booking.ClientEmail}, subject, body); err != nil {
		logrus.WithField("booking_id", booking.ID).Errorf("reminder email failed: %v", err)
		return models.ReminderStatusError
	}

	// SMS is optional; missing configuration is a normal state.
	if t.deps.SMS != nil && t.deps.SMS.Configured() && booking.ClientPhone != "" {
		if err := t.deps.SMS.Send(booking.ClientPhone, body); err != nil {
			logrus.WithField("booking_id", booking.ID).Warnf("reminder SMS failed: %v", err)
		}
	}

	return models.ReminderStatusSent
}

func renderReminder(template string, booking models.Booking) string {
	res := strings.ReplaceAll(template, "$name", booking.ClientName)
	res = strings.ReplaceAll(res, "$boat", booking.BoatName)
	res = strings.ReplaceAll(res, "$date", booking.BookingDate.Format("02 Jan 2006"))
	res = strings.ReplaceAll(res, "$balance", fmt.Sprintf("%.2f", booking.BalanceDue()))
	return res
}

func appendReminderLog(db *gorm.DB, bookingID uint, status, detail string) {
	entry := models.ReminderLog{
		BookingID: bookingID,
		Status:    status,
		Detail:    detail,
	}
	if err := db.Create(&entry).Error; err != nil {
		logrus.WithField("booking_id", bookingID).Warnf("reminder log append failed: %v", err)
	}
}

package tasks

import (
	"testing"
	"time"

	"charter_backoffice/internal/models"
)

var testPolicy = ReminderPolicy{LookaheadDays: 14, CooldownHours: 20}

func outstandingBooking(bookingDate time.Time) models.Booking {
	return models.Booking{
		ClientEmail:   "client@example.com",
		BookingDate:   bookingDate,
		AgreedPrice:   1000,
		TotalPaid:     300,
		PaymentStatus: models.BookingPaymentPartial,
	}
}

func TestEvaluateReminderWindow(t *testing.T) {
	now := time.Date(2026, 7, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		daysUntil int
		want      bool
		reason    string
	}{
		{name: "today", daysUntil: 0, want: true},
		{name: "inside lookahead", daysUntil: 14, want: true},
		{name: "one past lookahead", daysUntil: 15, want: false, reason: "window_not_open"},
		{name: "yesterday", daysUntil: -1, want: true},
		{name: "two days ago", daysUntil: -2, want: false, reason: "too_far_past"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := outstandingBooking(now.AddDate(0, 0, tt.daysUntil))
			got, reason := EvaluateReminder(booking, now, testPolicy)
			if got != tt.want {
				t.Errorf("eligible = %v; want %v (reason %q)", got, tt.want, reason)
			}
			if !tt.want && reason != tt.reason {
				t.Errorf("reason = %q; want %q", reason, tt.reason)
			}
		})
	}
}

func TestEvaluateReminderMidnightAlignment(t *testing.T) {
	// 23:50 the night before a booking at 00:10 is still one whole day.
	now := time.Date(2026, 7, 10, 23, 50, 0, 0, time.UTC)
	booking := outstandingBooking(time.Date(2026, 7, 11, 0, 10, 0, 0, time.UTC))

	if got := DaysUntil(booking.BookingDate, now); got != 1 {
		t.Fatalf("DaysUntil = %d; want 1", got)
	}
	if eligible, reason := EvaluateReminder(booking, now, testPolicy); !eligible {
		t.Errorf("expected eligible, got skip reason %q", reason)
	}
}

func TestEvaluateReminderCooldown(t *testing.T) {
	now := time.Date(2026, 7, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		lastSent time.Duration // how long ago
		want     bool
	}{
		{name: "inside cooldown", lastSent: time.Duration(testPolicy.CooldownHours-1) * time.Hour, want: false},
		{name: "outside cooldown", lastSent: time.Duration(testPolicy.CooldownHours+1) * time.Hour, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := outstandingBooking(now.AddDate(0, 0, 3))
			last := now.Add(-tt.lastSent)
			booking.LastReminderSentAt = &last

			got, reason := EvaluateReminder(booking, now, testPolicy)
			if got != tt.want {
				t.Errorf("eligible = %v; want %v (reason %q)", got, tt.want, reason)
			}
			if !tt.want && reason != "cooldown" {
				t.Errorf("reason = %q; want cooldown", reason)
			}
		})
	}
}

func TestEvaluateReminderSkipsWithoutEmailOrBalance(t *testing.T) {
	now := time.Date(2026, 7, 10, 9, 30, 0, 0, time.UTC)

	noEmail := outstandingBooking(now.AddDate(0, 0, 3))
	noEmail.ClientEmail = ""
	if eligible, reason := EvaluateReminder(noEmail, now, testPolicy); eligible || reason != "no_email" {
		t.Errorf("no email: eligible=%v reason=%q", eligible, reason)
	}

	settled := outstandingBooking(now.AddDate(0, 0, 3))
	settled.TotalPaid = settled.AgreedPrice
	if eligible, reason := EvaluateReminder(settled, now, testPolicy); eligible || reason != "no_balance" {
		t.Errorf("no balance: eligible=%v reason=%q", eligible, reason)
	}
}

func TestRenderReminder(t *testing.T) {
	booking := models.Booking{
		ClientName:  "Jamie",
		BoatName:    "Aurora",
		BookingDate: time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC),
		AgreedPrice: 1000,
		TotalPaid:   300,
	}

	got := renderReminder("Hi $name, $balance due for $boat on $date", booking)
	want := "Hi Jamie, 700.00 due for Aurora on 20 Jul 2026"
	if got != want {
		t.Errorf("renderReminder = %q; want %q", got, want)
	}
}

package models

import (
	"testing"
	"time"
)

func TestAggregatePayments(t *testing.T) {
	tests := []struct {
		name        string
		entries     []PaymentEntry
		agreedPrice float64
		wantTotal   float64
		wantStatus  BookingPaymentStatus
	}{
		{
			name:        "no entries",
			entries:     nil,
			agreedPrice: 1000,
			wantTotal:   0,
			wantStatus:  BookingPaymentNone,
		},
		{
			name: "deposit received, balance outstanding",
			entries: []PaymentEntry{
				{Type: PaymentEntryFirst, Amount: 300, Received: true},
				{Type: PaymentEntrySecond, Amount: 700, Received: false},
			},
			agreedPrice: 1000,
			wantTotal:   300,
			wantStatus:  BookingPaymentPartial,
		},
		{
			name: "fully paid",
			entries: []PaymentEntry{
				{Type: PaymentEntryFirst, Amount: 300, Received: true},
				{Type: PaymentEntrySecond, Amount: 700, Received: true},
			},
			agreedPrice: 1000,
			wantTotal:   1000,
			wantStatus:  BookingPaymentCompleted,
		},
		{
			name: "overpaid counts as completed",
			entries: []PaymentEntry{
				{Type: PaymentEntryFirst, Amount: 1200, Received: true},
			},
			agreedPrice: 1000,
			wantTotal:   1200,
			wantStatus:  BookingPaymentCompleted,
		},
		{
			name: "unreceived entries do not count",
			entries: []PaymentEntry{
				{Type: PaymentEntryFirst, Amount: 300, Received: false},
				{Type: PaymentEntrySecond, Amount: 700, Received: false},
			},
			agreedPrice: 1000,
			wantTotal:   0,
			wantStatus:  BookingPaymentNone,
		},
		{
			name:        "zero agreed price with no payments",
			entries:     []PaymentEntry{},
			agreedPrice: 0,
			wantTotal:   0,
			wantStatus:  BookingPaymentNone,
		},
		{
			name: "zero agreed price with money received",
			entries: []PaymentEntry{
				{Type: PaymentEntryFirst, Amount: 50, Received: true},
			},
			agreedPrice: 0,
			wantTotal:   50,
			wantStatus:  BookingPaymentCompleted,
		},
		{
			name: "negative agreed price degenerates the same way",
			entries: []PaymentEntry{
				{Type: PaymentEntryFirst, Amount: 50, Received: true},
			},
			agreedPrice: -10,
			wantTotal:   50,
			wantStatus:  BookingPaymentCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, status := AggregatePayments(tt.entries, tt.agreedPrice)
			if total != tt.wantTotal {
				t.Errorf("totalPaid = %v; want %v", total, tt.wantTotal)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %q; want %q", status, tt.wantStatus)
			}
		})
	}
}

func TestAggregatePaymentsDeterministic(t *testing.T) {
	entries := []PaymentEntry{
		{Type: PaymentEntryFirst, Amount: 300, Received: true, Date: time.Now()},
		{Type: PaymentEntrySecond, Amount: 700, Received: false},
	}
	t1, s1 := AggregatePayments(entries, 1000)
	t2, s2 := AggregatePayments(entries, 1000)
	if t1 != t2 || s1 != s2 {
		t.Errorf("aggregate is not deterministic: (%v,%q) vs (%v,%q)", t1, s1, t2, s2)
	}
}

func TestNormalizePaymentStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    BookingPaymentStatus
		wantErr bool
	}{
		{raw: "No Payment", want: BookingPaymentNone},
		{raw: "no payment", want: BookingPaymentNone},
		{raw: "Pending", want: BookingPaymentNone},
		{raw: "Partial", want: BookingPaymentPartial},
		{raw: "Deposit", want: BookingPaymentPartial},
		{raw: "Outstanding", want: BookingPaymentPartial},
		{raw: "Completed", want: BookingPaymentCompleted},
		{raw: "  paid  ", want: BookingPaymentCompleted},
		{raw: "garbage", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizePaymentStatus(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizePaymentStatus(%q) expected error, got %q", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePaymentStatus(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePaymentStatus(%q) = %q; want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestBalanceDue(t *testing.T) {
	tests := []struct {
		name    string
		booking Booking
		want    float64
	}{
		{name: "partial", booking: Booking{AgreedPrice: 1000, TotalPaid: 300}, want: 700},
		{name: "paid in full", booking: Booking{AgreedPrice: 1000, TotalPaid: 1000}, want: 0},
		{name: "overpaid floors at zero", booking: Booking{AgreedPrice: 1000, TotalPaid: 1200}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.booking.BalanceDue(); got != tt.want {
				t.Errorf("BalanceDue() = %v; want %v", got, tt.want)
			}
		})
	}
}

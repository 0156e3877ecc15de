package models

import (
	"testing"
	"time"
)

func newPending() *Appointment {
	return &Appointment{
		ID:            "a1",
		ClientPhone:   "5550001",
		ServiceID:     "swedish",
		Date:          "2026-03-03",
		Time:          "10:00",
		DurationMin:   60,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
	}
}

func TestConfirmTransitions(t *testing.T) {
	a := newPending()
	if err := a.Confirm(); err != nil {
		t.Fatal(err)
	}
	if a.Status != StatusConfirmed {
		t.Fatalf("status = %q", a.Status)
	}
	// Confirm is pending-only.
	if err := a.Confirm(); err == nil {
		t.Fatal("expected double confirm to fail")
	}
}

func TestMarkDepositPaidConfirmsAndRecordsCharge(t *testing.T) {
	a := newPending()
	if err := a.MarkDepositPaid("ch_1"); err != nil {
		t.Fatal(err)
	}
	if a.Status != StatusConfirmed || a.PaymentStatus != PaymentDepositPaid {
		t.Fatalf("status=%q payment=%q", a.Status, a.PaymentStatus)
	}
	if !a.DepositPaid || a.ChargeRef != "ch_1" {
		t.Fatalf("deposit bookkeeping: %+v", a)
	}

	a.Status = StatusCancelled
	if err := a.MarkDepositPaid("ch_2"); err == nil {
		t.Fatal("expected deposit on cancelled appointment to fail")
	}
}

func TestCancelTransitions(t *testing.T) {
	a := newPending()
	if err := a.Cancel(); err != nil {
		t.Fatal(err)
	}
	if a.Active() {
		t.Fatal("cancelled appointment still active")
	}
	if err := a.Cancel(); err == nil {
		t.Fatal("expected double cancel to fail")
	}

	b := newPending()
	if err := b.Complete(); err != nil {
		t.Fatal(err)
	}
	if err := b.Cancel(); err == nil {
		t.Fatal("expected cancel of completed appointment to fail")
	}
}

func TestCompleteSetsFullyPaid(t *testing.T) {
	a := newPending()
	if err := a.Complete(); err != nil {
		t.Fatal(err)
	}
	if a.Status != StatusCompleted || a.PaymentStatus != PaymentFullyPaid {
		t.Fatalf("status=%q payment=%q", a.Status, a.PaymentStatus)
	}
}

func TestStartAndEndTime(t *testing.T) {
	a := newPending()
	start, err := a.StartTime(time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	end, err := a.EndTime(time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !end.Equal(start.Add(time.Hour)) {
		t.Fatalf("end = %v", end)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"555-000-1234":   "5550001234",
		"(555) 000 1234": "5550001234",
		" +15550001234 ": "+15550001234",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

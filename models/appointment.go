package models

import (
	"fmt"
	"time"
)

// Appointment lifecycle statuses. Transitions are monotonic except
// cancellation, which is reachable from pending or confirmed only.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Payment statuses.
const (
	PaymentUnpaid      = "unpaid"
	PaymentDepositPaid = "deposit_paid"
	PaymentFullyPaid   = "fully_paid"
	PaymentRefunded    = "refunded"
)

// InvariantError flags an attempted transition that the data model forbids.
// It is a defect signal, never an expected operational condition.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Message
}

// Appointment is a booked slot for one client. Its (date, time, duration)
// interval must not overlap any other non-cancelled appointment.
type Appointment struct {
	ID            string    `json:"id" bson:"id"`
	ClientPhone   string    `json:"clientPhone" bson:"clientPhone"`
	ServiceID     string    `json:"serviceId" bson:"serviceId"`
	Date          string    `json:"date" bson:"date"` // YYYY-MM-DD
	Time          string    `json:"time" bson:"time"` // HH:MM
	DurationMin   int       `json:"durationMin" bson:"durationMin"`
	Price         float64   `json:"price" bson:"price"`
	DepositAmount float64   `json:"depositAmount" bson:"depositAmount"`
	DepositPaid   bool      `json:"depositPaid" bson:"depositPaid"`
	Status        string    `json:"status" bson:"status"`
	PaymentStatus string    `json:"paymentStatus" bson:"paymentStatus"`
	ChargeRef     string    `json:"chargeRef,omitempty" bson:"chargeRef,omitempty"`
	Notes         []string  `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// StartTime parses the appointment's date and time in the given location.
func (a *Appointment) StartTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, loc)
}

// EndTime is StartTime plus the service duration.
func (a *Appointment) EndTime(loc *time.Location) (time.Time, error) {
	start, err := a.StartTime(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(a.DurationMin) * time.Minute), nil
}

// Active reports whether the appointment still occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status != StatusCancelled
}

// Confirm moves a pending appointment to confirmed.
func (a *Appointment) Confirm() error {
	if a.Status != StatusPending {
		return &InvariantError{Message: fmt.Sprintf("cannot confirm appointment %s in status %q", a.ID, a.Status)}
	}
	a.Status = StatusConfirmed
	a.UpdatedAt = time.Now()
	return nil
}

// MarkDepositPaid records a verified deposit charge and confirms the
// appointment.
func (a *Appointment) MarkDepositPaid(chargeRef string) error {
	if a.Status == StatusCancelled || a.Status == StatusCompleted {
		return &InvariantError{Message: fmt.Sprintf("cannot pay deposit on appointment %s in status %q", a.ID, a.Status)}
	}
	a.DepositPaid = true
	a.PaymentStatus = PaymentDepositPaid
	a.ChargeRef = chargeRef
	a.Status = StatusConfirmed
	a.UpdatedAt = time.Now()
	return nil
}

// Cancel is valid from pending or confirmed only.
func (a *Appointment) Cancel() error {
	if a.Status != StatusPending && a.Status != StatusConfirmed {
		return &InvariantError{Message: fmt.Sprintf("cannot cancel appointment %s in status %q", a.ID, a.Status)}
	}
	a.Status = StatusCancelled
	a.UpdatedAt = time.Now()
	return nil
}

// Complete marks an elapsed appointment done. Triggered administratively or
// by the sweep worker, never self-timed.
func (a *Appointment) Complete() error {
	if a.Status != StatusConfirmed && a.Status != StatusPending {
		return &InvariantError{Message: fmt.Sprintf("cannot complete appointment %s in status %q", a.ID, a.Status)}
	}
	a.Status = StatusCompleted
	a.PaymentStatus = PaymentFullyPaid
	a.UpdatedAt = time.Now()
	return nil
}

// AddNote appends a timestamped follow-up entry (e.g. a failed refund).
func (a *Appointment) AddNote(note string) {
	stamp := time.Now().Format("2006-01-02 15:04:05")
	a.Notes = append(a.Notes, stamp+": "+note)
}

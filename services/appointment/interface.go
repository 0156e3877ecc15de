package appointment

import "serenity/models"

// CancelResult reports a cancellation plus its refund outcome. RefundErr is
// informational: cancellation is the primary operation and succeeds even
// when the refund call does not.
type CancelResult struct {
	Appointment  *models.Appointment
	RefundAmount float64
	RefundErr    error
}

// Service owns appointment and client lifecycle transitions.
type Service interface {
	// GetOrCreateClient returns the client for a contact key, creating the
	// record on first contact.
	GetOrCreateClient(phone string) (*models.Client, error)
	// SaveClient persists client mutations (name, email, notes, counters).
	SaveClient(client *models.Client) error
	// Create validates and persists a new pending appointment. The conflict
	// check and the insert are mutually exclusive per business date.
	Create(clientPhone, serviceID, date, timeStr string) (*models.Appointment, error)
	// Confirm moves a pending appointment to confirmed.
	Confirm(id string) (*models.Appointment, error)
	// MarkDepositPaid records a verified deposit and confirms.
	MarkDepositPaid(id, chargeRef string) (*models.Appointment, error)
	// Cancel transitions to cancelled and applies the refund ladder.
	Cancel(id, actor string) (*CancelResult, error)
	// Reschedule re-validates the new slot (excluding the moved appointment)
	// and atomically updates date/time; on failure the original is untouched.
	Reschedule(id, newDate, newTime string) (*models.Appointment, error)
	// Complete marks an elapsed appointment done (administrative trigger).
	Complete(id string) (*models.Appointment, error)
	// Upcoming lists a client's pending/confirmed future appointments,
	// soonest first.
	Upcoming(phone string) ([]models.Appointment, error)
}

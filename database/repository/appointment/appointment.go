package appointmentRepo

import "serenity/models"

// AppointmentRepository persists appointment records. Implementations are
// assumed strongly consistent within one process; conflict exclusion is the
// scheduling layer's job.
type AppointmentRepository interface {
	// GetByID returns the appointment, or nil when unknown.
	GetByID(id string) (*models.Appointment, error)
	// GetByDate returns every appointment on a YYYY-MM-DD date, including
	// cancelled ones; callers filter on Active().
	GetByDate(date string) ([]models.Appointment, error)
	// GetByClient returns every appointment for a contact key.
	GetByClient(phone string) ([]models.Appointment, error)
	// Put inserts a new appointment record.
	Put(appt *models.Appointment) error
	// Update replaces an existing appointment record.
	Update(appt *models.Appointment) error
}

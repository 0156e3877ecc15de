package appointmentRepo

import (
	"fmt"
	"sync"

	"serenity/models"
)

// MemoryAppointmentRepo is a map-backed AppointmentRepository for tests and
// local demos.
type MemoryAppointmentRepo struct {
	mu    sync.RWMutex
	appts map[string]models.Appointment
}

// NewMemoryAppointmentRepo creates an empty in-memory appointment repository.
func NewMemoryAppointmentRepo() *MemoryAppointmentRepo {
	return &MemoryAppointmentRepo{appts: make(map[string]models.Appointment)}
}

func (r *MemoryAppointmentRepo) GetByID(id string) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, nil
	}
	copied := a
	return &copied, nil
}

func (r *MemoryAppointmentRepo) GetByDate(date string) ([]models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryAppointmentRepo) GetByClient(phone string) ([]models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := models.NormalizePhone(phone)
	var out []models.Appointment
	for _, a := range r.appts {
		if a.ClientPhone == key {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *MemoryAppointmentRepo) Put(appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.appts[appt.ID]; exists {
		return fmt.Errorf("appointment %s already exists", appt.ID)
	}
	r.appts[appt.ID] = *appt
	return nil
}

func (r *MemoryAppointmentRepo) Update(appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.appts[appt.ID]; !exists {
		return fmt.Errorf("appointment %s not found", appt.ID)
	}
	r.appts[appt.ID] = *appt
	return nil
}

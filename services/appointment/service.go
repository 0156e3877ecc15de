package appointment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"serenity/config"
	appointmentRepo "serenity/database/repository/appointment"
	clientRepo "serenity/database/repository/client"
	"serenity/models"
	"serenity/services/payment"
	"serenity/services/scheduling"
	"serenity/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultService implements Service.
type DefaultService struct {
	Clients      clientRepo.ClientRepository
	Appointments appointmentRepo.AppointmentRepository
	Engine       scheduling.Engine
	Payments     payment.Processor
	Cfg          *config.BusinessConfig
	Logger       *zap.Logger
	Now          func() time.Time

	// dateLocks serializes conflict-check + insert per business date so two
	// clients cannot both win the same slot.
	dateLocks utils.KeyMutex
}

// NewService wires the lifecycle service with the real clock.
func NewService(clients clientRepo.ClientRepository, appts appointmentRepo.AppointmentRepository, engine scheduling.Engine, payments payment.Processor, cfg *config.BusinessConfig, logger *zap.Logger) *DefaultService {
	return &DefaultService{
		Clients:      clients,
		Appointments: appts,
		Engine:       engine,
		Payments:     payments,
		Cfg:          cfg,
		Logger:       logger,
		Now:          time.Now,
	}
}

func (s *DefaultService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultService) GetOrCreateClient(phone string) (*models.Client, error) {
	key := models.NormalizePhone(phone)
	client, err := s.Clients.GetByPhone(key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up client %s: %w", key, err)
	}
	if client != nil {
		return client, nil
	}

	client = models.NewClient(key)
	if err := s.Clients.Put(client); err != nil {
		return nil, fmt.Errorf("failed to create client %s: %w", key, err)
	}
	s.Logger.Info("New client created", zap.String("phone", key))
	return client, nil
}

func (s *DefaultService) SaveClient(client *models.Client) error {
	return s.Clients.Put(client)
}

// Create validates the request, then re-validates and inserts under the
// per-date lock. A commit-time conflict is retried once against freshly
// recomputed availability before being surfaced.
func (s *DefaultService) Create(clientPhone, serviceID, date, timeStr string) (*models.Appointment, error) {
	svc, ok := s.Cfg.ServiceByID(serviceID)
	if !ok {
		return nil, &scheduling.ValidationError{Reason: scheduling.ReasonUnknownService, Message: fmt.Sprintf("service %q is not offered", serviceID)}
	}

	quote, err := s.Engine.Quote(serviceID)
	if err != nil {
		return nil, err
	}

	s.dateLocks.Lock(date)
	defer s.dateLocks.Unlock(date)

	appt, err := s.commitOnce(clientPhone, svc, quote, date, timeStr)
	if err != nil {
		if scheduling.AsValidation(err) != nil {
			return nil, err
		}
		// Repository-level race or transient failure: one automatic retry.
		s.Logger.Warn("Appointment commit failed, retrying once", zap.Error(err))
		appt, err = s.commitOnce(clientPhone, svc, quote, date, timeStr)
		if err != nil {
			return nil, err
		}
	}

	client, cerr := s.GetOrCreateClient(clientPhone)
	if cerr == nil {
		client.RecordBooking(quote.Price)
		client.SetPreference("last_service", svc.ID)
		if perr := s.Clients.Put(client); perr != nil {
			s.Logger.Warn("Failed to update client booking stats", zap.String("phone", clientPhone), zap.Error(perr))
		}
	}

	s.Logger.Info("Appointment created",
		zap.String("id", appt.ID),
		zap.String("service", serviceID),
		zap.String("date", date),
		zap.String("time", timeStr))
	return appt, nil
}

func (s *DefaultService) commitOnce(clientPhone string, svc models.Service, quote models.Quote, date, timeStr string) (*models.Appointment, error) {
	if err := s.Engine.ValidateRequest(svc.ID, date, timeStr); err != nil {
		return nil, err
	}

	now := s.now()
	appt := &models.Appointment{
		ID:            uuid.New().String(),
		ClientPhone:   models.NormalizePhone(clientPhone),
		ServiceID:     svc.ID,
		Date:          date,
		Time:          timeStr,
		DurationMin:   svc.DurationMin,
		Price:         quote.Price,
		DepositAmount: quote.DepositAmount,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Appointments.Put(appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *DefaultService) Confirm(id string) (*models.Appointment, error) {
	appt, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if err := appt.Confirm(); err != nil {
		return nil, err
	}
	if err := s.Appointments.Update(appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *DefaultService) MarkDepositPaid(id, chargeRef string) (*models.Appointment, error) {
	appt, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if err := appt.MarkDepositPaid(chargeRef); err != nil {
		return nil, err
	}
	if err := s.Appointments.Update(appt); err != nil {
		return nil, err
	}
	s.Logger.Info("Deposit verified", zap.String("id", id), zap.String("chargeRef", chargeRef))
	return appt, nil
}

// Cancel applies the refund ladder and transitions to cancelled. The refund
// call is best-effort: its failure is noted on the appointment for manual
// follow-up, never rolled back.
func (s *DefaultService) Cancel(id, actor string) (*CancelResult, error) {
	appt, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}

	refundAmount := s.refundAmount(appt)

	if err := appt.Cancel(); err != nil {
		return nil, err
	}
	appt.AddNote(fmt.Sprintf("cancelled by %s", actor))
	if err := s.Appointments.Update(appt); err != nil {
		return nil, fmt.Errorf("failed to persist cancellation of %s: %w", id, err)
	}

	result := &CancelResult{Appointment: appt, RefundAmount: refundAmount}
	if refundAmount > 0 && appt.DepositPaid && appt.ChargeRef != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Payments.Refund(ctx, appt.ChargeRef, refundAmount); err != nil {
			s.Logger.Error("Refund failed after cancellation",
				zap.String("id", id),
				zap.Float64("amount", refundAmount),
				zap.Error(err))
			appt.AddNote(fmt.Sprintf("refund of %.2f failed: %v", refundAmount, err))
			result.RefundErr = err
		} else {
			appt.PaymentStatus = models.PaymentRefunded
		}
		if uerr := s.Appointments.Update(appt); uerr != nil {
			s.Logger.Warn("Failed to persist refund outcome", zap.String("id", id), zap.Error(uerr))
		}
	}

	s.Logger.Info("Appointment cancelled",
		zap.String("id", id),
		zap.String("actor", actor),
		zap.Float64("refund", refundAmount))
	return result, nil
}

// refundAmount walks the cancellation ladder against hours remaining before
// the appointment.
func (s *DefaultService) refundAmount(appt *models.Appointment) float64 {
	if !appt.DepositPaid || appt.DepositAmount <= 0 {
		return 0
	}
	start, err := appt.StartTime(s.now().Location())
	if err != nil {
		return 0
	}
	hoursUntil := start.Sub(s.now()).Hours()

	policy := s.Cfg.Refund
	switch {
	case hoursUntil >= float64(policy.FullCutoffHours):
		return appt.DepositAmount
	case hoursUntil >= float64(policy.PartialCutoffHours):
		return appt.DepositAmount * policy.PartialRate
	default:
		return 0
	}
}

func (s *DefaultService) Reschedule(id, newDate, newTime string) (*models.Appointment, error) {
	appt, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if appt.Status != models.StatusPending && appt.Status != models.StatusConfirmed {
		return nil, &models.InvariantError{Message: fmt.Sprintf("cannot reschedule appointment %s in status %q", id, appt.Status)}
	}

	s.dateLocks.Lock(newDate)
	defer s.dateLocks.Unlock(newDate)

	if err := s.Engine.ValidateRequestExcluding(appt.ServiceID, newDate, newTime, appt.ID); err != nil {
		return nil, err
	}

	appt.Date = newDate
	appt.Time = newTime
	appt.UpdatedAt = s.now()
	if err := s.Appointments.Update(appt); err != nil {
		return nil, fmt.Errorf("failed to persist reschedule of %s: %w", id, err)
	}

	s.Logger.Info("Appointment rescheduled",
		zap.String("id", id),
		zap.String("date", newDate),
		zap.String("time", newTime))
	return appt, nil
}

func (s *DefaultService) Complete(id string) (*models.Appointment, error) {
	appt, err := s.mustGet(id)
	if err != nil {
		return nil, err
	}
	if err := appt.Complete(); err != nil {
		return nil, err
	}
	if err := s.Appointments.Update(appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *DefaultService) Upcoming(phone string) ([]models.Appointment, error) {
	appts, err := s.Appointments.GetByClient(phone)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments for %s: %w", phone, err)
	}

	now := s.now()
	loc := now.Location()
	var upcoming []models.Appointment
	for _, a := range appts {
		if a.Status != models.StatusPending && a.Status != models.StatusConfirmed {
			continue
		}
		start, err := a.StartTime(loc)
		if err != nil || start.Before(now) {
			continue
		}
		upcoming = append(upcoming, a)
	}
	sort.Slice(upcoming, func(i, j int) bool {
		a, _ := upcoming[i].StartTime(loc)
		b, _ := upcoming[j].StartTime(loc)
		return a.Before(b)
	})
	return upcoming, nil
}

func (s *DefaultService) mustGet(id string) (*models.Appointment, error) {
	appt, err := s.Appointments.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointment %s: %w", id, err)
	}
	if appt == nil {
		return nil, fmt.Errorf("appointment %s not found", id)
	}
	return appt, nil
}

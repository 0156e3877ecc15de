package agent

import (
	"context"

	"serenity/config"
	"serenity/models"
	"serenity/services/appointment"
	"serenity/services/nlu"
	"serenity/services/payment"
	"serenity/services/scheduling"
	"serenity/utils"

	"go.uber.org/zap"
)

// browseDaysAhead bounds the availability scan when a client just asks "when
// are you free".
const browseDaysAhead = 14

// BookingAgent is the conversational surface: one inbound message in, one
// reply out, with all state living in the session store.
type BookingAgent interface {
	ProcessMessage(ctx context.Context, phone, text string) (string, error)
}

// DefaultBookingAgent drives the conversation state machine over the
// extractor, the scheduling engine and the appointment lifecycle.
type DefaultBookingAgent struct {
	Sessions  SessionStore
	Extractor *nlu.Extractor
	Engine    scheduling.Engine
	Lifecycle appointment.Service
	Payments  payment.Processor
	Cfg       *config.BusinessConfig
	Logger    *zap.Logger

	// clientLocks serializes messages per client so two concurrent texts
	// cannot interleave session updates.
	clientLocks utils.KeyMutex
}

// NewBookingAgent wires the agent.
func NewBookingAgent(sessions SessionStore, extractor *nlu.Extractor, engine scheduling.Engine, lifecycle appointment.Service, payments payment.Processor, cfg *config.BusinessConfig, logger *zap.Logger) *DefaultBookingAgent {
	return &DefaultBookingAgent{
		Sessions:  sessions,
		Extractor: extractor,
		Engine:    engine,
		Lifecycle: lifecycle,
		Payments:  payments,
		Cfg:       cfg,
		Logger:    logger,
	}
}

// ProcessMessage handles one inbound message end to end: load session,
// extract, dispatch, persist, reply. A capability failure yields an apology
// and leaves the session unchanged so the client can simply try again.
func (a *DefaultBookingAgent) ProcessMessage(ctx context.Context, phone, text string) (string, error) {
	key := models.NormalizePhone(phone)
	a.clientLocks.Lock(key)
	defer a.clientLocks.Unlock(key)

	session, err := a.Sessions.Get(ctx, key)
	if err != nil {
		a.Logger.Error("Failed to load session", zap.String("phone", key), zap.Error(err))
		return replyTransientFailure(), nil
	}
	if session == nil {
		session = models.NewConversationSession(key)
	}

	client, err := a.Lifecycle.GetOrCreateClient(key)
	if err != nil {
		a.Logger.Error("Failed to resolve client", zap.String("phone", key), zap.Error(err))
		return replyTransientFailure(), nil
	}

	intent, entities := a.Extractor.Extract(text)
	a.Logger.Debug("Message classified",
		zap.String("phone", key),
		zap.String("stage", session.Stage),
		zap.String("intent", string(intent)))

	a.captureContactInfo(client, entities)

	reply := a.dispatch(ctx, session, intent, entities)

	session.Touch()
	if err := a.Sessions.Save(ctx, session); err != nil {
		a.Logger.Error("Failed to save session", zap.String("phone", key), zap.Error(err))
	}
	return reply, nil
}

// dispatch routes by interrupt intent first, then by stage.
func (a *DefaultBookingAgent) dispatch(ctx context.Context, session *models.ConversationSession, intent nlu.Intent, entities nlu.Entities) string {
	switch intent {
	case nlu.IntentCancel:
		return a.handleCancel(session)
	case nlu.IntentReschedule:
		return a.handleRescheduleStart(session, entities)
	}

	if session.Stage == models.StageAwaitingDeposit {
		return a.handleDeposit(ctx, session)
	}

	mergeEntities(session, entities)

	switch intent {
	case nlu.IntentAskServices:
		return replyServicesMenu(a.Cfg)
	case nlu.IntentAskAvailability:
		return a.handleAvailability(session)
	case nlu.IntentGreet:
		if session.Draft == (models.BookingDraft{}) && session.Stage != models.StageRescheduling {
			session.Stage = models.StageCollectingService
			return replyWelcome(a.Cfg)
		}
		return a.advance(ctx, session)
	case nlu.IntentBook, nlu.IntentProvideInfo:
		return a.advance(ctx, session)
	default:
		return replyFallback()
	}
}

// mergeEntities folds newly extracted slots into the draft; later mentions
// overwrite earlier ones so "actually make it 3pm" works.
func mergeEntities(session *models.ConversationSession, entities nlu.Entities) {
	// While rescheduling the service is pinned to the moved appointment.
	if entities.ServiceID != "" && session.Stage != models.StageRescheduling {
		session.Draft.ServiceID = entities.ServiceID
	}
	if entities.Date != "" {
		session.Draft.Date = entities.Date
	}
	if entities.Time != "" {
		session.Draft.Time = entities.Time
	}
}

func (a *DefaultBookingAgent) captureContactInfo(client *models.Client, entities nlu.Entities) {
	changed := false
	if entities.Name != "" && client.Name == "" {
		client.Name = entities.Name
		changed = true
	}
	if entities.Email != "" && client.Email != entities.Email {
		client.Email = entities.Email
		changed = true
	}
	if changed {
		if err := a.Lifecycle.SaveClient(client); err != nil {
			a.Logger.Warn("Failed to save client contact info", zap.String("phone", client.PhoneNumber), zap.Error(err))
		}
	}
}

// advance prompts for the next missing draft field, or commits when the
// draft is complete.
func (a *DefaultBookingAgent) advance(ctx context.Context, session *models.ConversationSession) string {
	if session.Stage == models.StageRescheduling {
		return a.advanceReschedule(session)
	}

	draft := session.Draft
	if draft.ServiceID == "" {
		session.Stage = models.StageCollectingService
		return replyAskService()
	}
	svc, ok := a.Cfg.ServiceByID(draft.ServiceID)
	if !ok {
		session.Draft.ServiceID = ""
		session.Stage = models.StageCollectingService
		return replyAskService()
	}

	if draft.Date == "" {
		session.Stage = models.StageCollectingDate
		return replyAskDate(svc)
	}
	if draft.Time == "" {
		session.Stage = models.StageCollectingTime
		slots, err := a.Engine.AvailableSlots(draft.Date, svc.DurationMin)
		if err != nil {
			a.Logger.Error("Failed to compute availability", zap.String("date", draft.Date), zap.Error(err))
			return replyTransientFailure()
		}
		if len(slots) == 0 {
			session.Draft.Date = ""
			session.Stage = models.StageCollectingDate
		}
		return replyAskTime(draft.Date, slots)
	}

	return a.commitBooking(ctx, session, svc)
}

// commitBooking creates the appointment and either confirms it outright or
// parks the conversation behind the deposit gate.
func (a *DefaultBookingAgent) commitBooking(ctx context.Context, session *models.ConversationSession, svc models.Service) string {
	appt, err := a.Lifecycle.Create(session.ClientPhone, svc.ID, session.Draft.Date, session.Draft.Time)
	if err != nil {
		if ve := scheduling.AsValidation(err); ve != nil {
			return a.applyRejection(session, ve)
		}
		a.Logger.Error("Failed to create appointment", zap.String("phone", session.ClientPhone), zap.Error(err))
		return replyTransientFailure()
	}

	session.AppointmentID = appt.ID
	if appt.DepositAmount > 0 {
		// A previous booking's charge must not satisfy this one's gate.
		session.ChargeRef = ""
		session.PaymentURL = ""
		session.Stage = models.StageAwaitingDeposit
		return a.requestDeposit(ctx, session, svc, appt.DepositAmount)
	}

	confirmed, err := a.Lifecycle.Confirm(appt.ID)
	if err != nil {
		a.Logger.Error("Failed to confirm appointment", zap.String("id", appt.ID), zap.Error(err))
		return replyTransientFailure()
	}
	session.Stage = models.StageConfirmed
	session.Draft = models.BookingDraft{}
	return replyConfirmed(svc, confirmed)
}

// requestDeposit creates the charge reference and hands the client the
// payment link. On failure the appointment stays pending and the next
// message retries the charge.
func (a *DefaultBookingAgent) requestDeposit(ctx context.Context, session *models.ConversationSession, svc models.Service, amount float64) string {
	ref, err := a.Payments.CreateChargeReference(ctx, amount, a.Cfg.Currency, map[string]string{
		"appointment_id": session.AppointmentID,
		"client_phone":   session.ClientPhone,
	})
	if err != nil {
		a.Logger.Error("Failed to create charge reference",
			zap.String("appointment", session.AppointmentID),
			zap.Error(err))
		return replyTransientFailure()
	}
	session.ChargeRef = ref.ID
	session.PaymentURL = ref.PaymentURL
	return replyDepositRequest(svc, amount, ref.PaymentURL)
}

// handleDeposit verifies the pending charge instead of running extraction;
// while the deposit gate is up, any non-interrupt message means "did it go
// through".
func (a *DefaultBookingAgent) handleDeposit(ctx context.Context, session *models.ConversationSession) string {
	svc, ok := a.Cfg.ServiceByID(session.Draft.ServiceID)
	if !ok {
		session.ResetDraft()
		session.Stage = models.StageGreeting
		return replyFallback()
	}
	if session.ChargeRef == "" {
		quote, err := a.Engine.Quote(svc.ID)
		if err != nil {
			return replyTransientFailure()
		}
		return a.requestDeposit(ctx, session, svc, quote.DepositAmount)
	}

	state, err := a.Payments.VerifyCharge(ctx, session.ChargeRef)
	if err != nil {
		a.Logger.Error("Deposit verification failed", zap.String("chargeRef", session.ChargeRef), zap.Error(err))
		return replyTransientFailure()
	}
	if state != payment.StatePaid {
		return replyDepositPending(session.PaymentURL)
	}

	appt, err := a.Lifecycle.MarkDepositPaid(session.AppointmentID, session.ChargeRef)
	if err != nil {
		a.Logger.Error("Failed to record deposit", zap.String("appointment", session.AppointmentID), zap.Error(err))
		return replyTransientFailure()
	}
	session.Stage = models.StageConfirmed
	session.Draft = models.BookingDraft{}
	session.ChargeRef = ""
	session.PaymentURL = ""
	return replyConfirmed(svc, appt)
}

// handleCancel cancels the client's soonest upcoming appointment. The
// interrupt discards any in-flight draft.
func (a *DefaultBookingAgent) handleCancel(session *models.ConversationSession) string {
	upcoming, err := a.Lifecycle.Upcoming(session.ClientPhone)
	if err != nil {
		a.Logger.Error("Failed to list appointments", zap.String("phone", session.ClientPhone), zap.Error(err))
		return replyTransientFailure()
	}
	if len(upcoming) == 0 {
		session.ResetDraft()
		session.Stage = models.StageIdle
		return replyNoUpcoming()
	}

	result, err := a.Lifecycle.Cancel(upcoming[0].ID, "client")
	if err != nil {
		a.Logger.Error("Failed to cancel appointment", zap.String("id", upcoming[0].ID), zap.Error(err))
		return replyTransientFailure()
	}

	session.ResetDraft()
	session.Stage = models.StageIdle
	return replyCancelled(result.Appointment, result.RefundAmount, result.RefundErr != nil)
}

// handleRescheduleStart pins the soonest upcoming appointment and starts
// collecting the new slot. Entities from the same message are applied
// immediately, so "move it to friday at 2pm" can complete in one turn.
func (a *DefaultBookingAgent) handleRescheduleStart(session *models.ConversationSession, entities nlu.Entities) string {
	upcoming, err := a.Lifecycle.Upcoming(session.ClientPhone)
	if err != nil {
		a.Logger.Error("Failed to list appointments", zap.String("phone", session.ClientPhone), zap.Error(err))
		return replyTransientFailure()
	}
	if len(upcoming) == 0 {
		session.ResetDraft()
		session.Stage = models.StageIdle
		return replyNoUpcoming()
	}

	target := upcoming[0]
	session.ResetDraft()
	session.AppointmentID = target.ID
	session.Draft.ServiceID = target.ServiceID
	session.Stage = models.StageRescheduling

	mergeEntities(session, entities)
	if session.Draft.Date != "" {
		return a.advanceReschedule(session)
	}
	return replyAskRescheduleDate(&target)
}

func (a *DefaultBookingAgent) advanceReschedule(session *models.ConversationSession) string {
	svc, ok := a.Cfg.ServiceByID(session.Draft.ServiceID)
	if !ok {
		session.ResetDraft()
		session.Stage = models.StageGreeting
		return replyFallback()
	}

	if session.Draft.Date == "" {
		return "What day would you like to move your appointment to?"
	}
	if session.Draft.Time == "" {
		slots, err := a.Engine.AvailableSlots(session.Draft.Date, svc.DurationMin)
		if err != nil {
			a.Logger.Error("Failed to compute availability", zap.String("date", session.Draft.Date), zap.Error(err))
			return replyTransientFailure()
		}
		if len(slots) == 0 {
			session.Draft.Date = ""
		}
		return replyAskTime(session.Draft.Date, slots)
	}

	appt, err := a.Lifecycle.Reschedule(session.AppointmentID, session.Draft.Date, session.Draft.Time)
	if err != nil {
		if ve := scheduling.AsValidation(err); ve != nil {
			return a.applyRejection(session, ve)
		}
		a.Logger.Error("Failed to reschedule appointment", zap.String("id", session.AppointmentID), zap.Error(err))
		return replyTransientFailure()
	}

	session.Stage = models.StageConfirmed
	session.Draft = models.BookingDraft{}
	return replyRescheduled(appt)
}

// handleAvailability answers "when are you free" from whatever the draft
// already holds.
func (a *DefaultBookingAgent) handleAvailability(session *models.ConversationSession) string {
	durationMin := a.Cfg.ShortestServiceDuration()
	if svc, ok := a.Cfg.ServiceByID(session.Draft.ServiceID); ok {
		durationMin = svc.DurationMin
	}

	if session.Draft.Date != "" {
		slots, err := a.Engine.AvailableSlots(session.Draft.Date, durationMin)
		if err != nil {
			a.Logger.Error("Failed to compute availability", zap.String("date", session.Draft.Date), zap.Error(err))
			return replyTransientFailure()
		}
		if session.Draft.ServiceID != "" && len(slots) > 0 {
			session.Stage = models.StageCollectingTime
		}
		return replyAskTime(session.Draft.Date, slots)
	}

	dates, err := a.Engine.AvailableDates(browseDaysAhead)
	if err != nil {
		a.Logger.Error("Failed to compute available dates", zap.Error(err))
		return replyTransientFailure()
	}
	if session.Draft.ServiceID != "" {
		session.Stage = models.StageCollectingDate
	}
	return replyAvailableDates(dates)
}

// applyRejection bounces the conversation back to the stage that can repair
// the rejected field and phrases the reason.
func (a *DefaultBookingAgent) applyRejection(session *models.ConversationSession, ve *scheduling.ValidationError) string {
	rescheduling := session.Stage == models.StageRescheduling

	switch ve.Reason {
	case scheduling.ReasonUnknownService:
		session.Draft.ServiceID = ""
		if !rescheduling {
			session.Stage = models.StageCollectingService
		}
	case scheduling.ReasonNonBusinessDay, scheduling.ReasonTooSoon, scheduling.ReasonTooFarAhead:
		session.Draft.Date = ""
		session.Draft.Time = ""
		if !rescheduling {
			session.Stage = models.StageCollectingDate
		}
	case scheduling.ReasonOutsideHours, scheduling.ReasonSlotConflict:
		session.Draft.Time = ""
		if !rescheduling {
			session.Stage = models.StageCollectingTime
		}
	}
	return replyRejection(ve.Message, ve.Alternatives)
}

var _ BookingAgent = (*DefaultBookingAgent)(nil)

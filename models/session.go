package models

import "time"

// Conversation stages. The agent advances these in sequence; rescheduling
// and cancelling are side-states reachable from anywhere on the matching
// intent.
const (
	StageGreeting          = "greeting"
	StageCollectingService = "collecting_service"
	StageCollectingDate    = "collecting_date"
	StageCollectingTime    = "collecting_time"
	StageAwaitingDeposit   = "awaiting_deposit"
	StageConfirmed         = "confirmed"
	StageRescheduling      = "rescheduling"
	StageCancelling        = "cancelling"
	StageIdle              = "idle"
)

// BookingDraft accumulates the partially collected booking across messages.
type BookingDraft struct {
	ServiceID string `json:"serviceId,omitempty"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
}

// ConversationSession is the ephemeral per-client conversation progress,
// keyed by contact key and distinct from the durable appointment record.
// At most one active session exists per client.
type ConversationSession struct {
	ClientPhone   string       `json:"clientPhone"`
	Stage         string       `json:"stage"`
	Draft         BookingDraft `json:"draft"`
	AppointmentID string       `json:"appointmentId,omitempty"`
	ChargeRef     string       `json:"chargeRef,omitempty"`
	PaymentURL    string       `json:"paymentUrl,omitempty"`
	LastActivity  time.Time    `json:"lastActivity"`
}

// NewConversationSession starts a session at the greeting stage.
func NewConversationSession(phone string) *ConversationSession {
	return &ConversationSession{
		ClientPhone:  phone,
		Stage:        StageGreeting,
		LastActivity: time.Now(),
	}
}

// ResetDraft discards booking progress; used by the cancel/reschedule
// interrupts, which never merge drafts.
func (s *ConversationSession) ResetDraft() {
	s.Draft = BookingDraft{}
	s.AppointmentID = ""
	s.ChargeRef = ""
	s.PaymentURL = ""
}

// Touch refreshes the idle timestamp the sweeper checks.
func (s *ConversationSession) Touch() {
	s.LastActivity = time.Now()
}

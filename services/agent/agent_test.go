package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"serenity/config"
	appointmentRepo "serenity/database/repository/appointment"
	clientRepo "serenity/database/repository/client"
	"serenity/models"
	"serenity/services/appointment"
	"serenity/services/nlu"
	"serenity/services/payment"
	"serenity/services/scheduling"

	"go.uber.org/zap"
)

// testNow is Monday 2026-03-02 08:00 UTC.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

const testPhone = "555-000-1234"

type fakeProcessor struct {
	mu        sync.Mutex
	seq       int
	paid      map[string]bool
	metadata  map[string]map[string]string
	createErr error
}

func (f *fakeProcessor) CreateChargeReference(ctx context.Context, amount float64, currency string, metadata map[string]string) (*payment.ChargeReference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	id := fmt.Sprintf("ch_%d", f.seq)
	if f.metadata == nil {
		f.metadata = make(map[string]map[string]string)
	}
	f.metadata[id] = metadata
	return &payment.ChargeReference{ID: id, PaymentURL: "https://pay.test/" + id}, nil
}

func (f *fakeProcessor) VerifyCharge(ctx context.Context, ref string) (payment.ChargeState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paid[ref] {
		return payment.StatePaid, nil
	}
	return payment.StateUnpaid, nil
}

func (f *fakeProcessor) Refund(ctx context.Context, ref string, amount float64) error {
	return nil
}

func (f *fakeProcessor) pay(ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paid == nil {
		f.paid = make(map[string]bool)
	}
	f.paid[ref] = true
}

type testHarness struct {
	agent     *DefaultBookingAgent
	appts     *appointmentRepo.MemoryAppointmentRepo
	clients   *clientRepo.MemoryClientRepo
	processor *fakeProcessor
	lifecycle *appointment.DefaultService
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	cfg := config.DefaultBusinessConfig()
	appts := appointmentRepo.NewMemoryAppointmentRepo()
	clients := clientRepo.NewMemoryClientRepo()
	processor := &fakeProcessor{}

	engine := scheduling.NewEngine(appts, cfg)
	engine.Now = func() time.Time { return testNow }

	lifecycle := appointment.NewService(clients, appts, engine, processor, cfg, zap.NewNop())
	lifecycle.Now = func() time.Time { return testNow }

	extractor := nlu.NewExtractor(cfg)
	extractor.Now = func() time.Time { return testNow }

	a := NewBookingAgent(NewMemorySessionStore(), extractor, engine, lifecycle, processor, cfg, zap.NewNop())
	return &testHarness{agent: a, appts: appts, clients: clients, processor: processor, lifecycle: lifecycle}
}

func (h *testHarness) say(t *testing.T, text string) string {
	t.Helper()
	reply, err := h.agent.ProcessMessage(context.Background(), testPhone, text)
	if err != nil {
		t.Fatalf("ProcessMessage(%q): %v", text, err)
	}
	return reply
}

func (h *testHarness) onlyAppointment(t *testing.T) *models.Appointment {
	t.Helper()
	appts, err := h.appts.GetByClient(testPhone)
	if err != nil {
		t.Fatal(err)
	}
	if len(appts) != 1 {
		t.Fatalf("got %d appointments, want 1", len(appts))
	}
	return &appts[0]
}

func (h *testHarness) appointmentForService(t *testing.T, serviceID string) *models.Appointment {
	t.Helper()
	appts, err := h.appts.GetByClient(testPhone)
	if err != nil {
		t.Fatal(err)
	}
	for i := range appts {
		if appts[i].ServiceID == serviceID {
			return &appts[i]
		}
	}
	t.Fatalf("no %s appointment found", serviceID)
	return nil
}

func TestStepByStepBooking(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "hi")
	if !strings.Contains(reply, "Serenity Massage Therapy") {
		t.Fatalf("welcome reply = %q", reply)
	}

	reply = h.say(t, "what do you offer?")
	if !strings.Contains(reply, "Swedish Massage") || !strings.Contains(reply, "$80") {
		t.Fatalf("menu reply = %q", reply)
	}

	reply = h.say(t, "swedish please")
	if !strings.Contains(reply, "What day") {
		t.Fatalf("date prompt = %q", reply)
	}

	reply = h.say(t, "tomorrow")
	if !strings.Contains(reply, "09:00") {
		t.Fatalf("slot listing = %q", reply)
	}

	reply = h.say(t, "10am")
	if !strings.Contains(reply, "all set") {
		t.Fatalf("confirmation = %q", reply)
	}

	appt := h.onlyAppointment(t)
	if appt.Status != models.StatusConfirmed {
		t.Fatalf("status = %q, want confirmed", appt.Status)
	}
	if appt.ServiceID != "swedish" || appt.Date != "2026-03-03" || appt.Time != "10:00" {
		t.Fatalf("booked %s %s %s", appt.ServiceID, appt.Date, appt.Time)
	}
}

func TestOneMessageBookingWithoutDeposit(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "Hi, I'd like to book a swedish massage tomorrow at 2pm")
	if !strings.Contains(reply, "all set") {
		t.Fatalf("reply = %q", reply)
	}

	appt := h.onlyAppointment(t)
	if appt.Status != models.StatusConfirmed || appt.Time != "14:00" {
		t.Fatalf("appointment: %+v", appt)
	}
}

func TestDepositGate(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "book a hot stone massage tomorrow at 2pm")
	if !strings.Contains(reply, "https://pay.test/ch_1") || !strings.Contains(reply, "$30.00") {
		t.Fatalf("deposit request = %q", reply)
	}

	appt := h.onlyAppointment(t)
	if appt.Status != models.StatusPending {
		t.Fatalf("status before payment = %q, want pending", appt.Status)
	}

	// Not paid yet: the gate stays up whatever the client says.
	reply = h.say(t, "did it work?")
	if !strings.Contains(reply, "haven't seen your deposit") {
		t.Fatalf("pending reply = %q", reply)
	}

	h.processor.pay("ch_1")
	reply = h.say(t, "paid it just now")
	if !strings.Contains(reply, "all set") {
		t.Fatalf("post-payment reply = %q", reply)
	}

	appt = h.onlyAppointment(t)
	if appt.Status != models.StatusConfirmed || appt.PaymentStatus != models.PaymentDepositPaid {
		t.Fatalf("after payment: %+v", appt)
	}
}

func TestDepositChargeFailureKeepsSessionRetryable(t *testing.T) {
	h := newHarness(t)
	h.processor.createErr = errors.New("gateway down")

	reply := h.say(t, "book a hot stone massage tomorrow at 2pm")
	if !strings.Contains(reply, "try again") {
		t.Fatalf("failure reply = %q", reply)
	}

	// Gateway recovers; the next message produces the payment link.
	h.processor.mu.Lock()
	h.processor.createErr = nil
	h.processor.mu.Unlock()

	reply = h.say(t, "ok now?")
	if !strings.Contains(reply, "https://pay.test/ch_1") {
		t.Fatalf("retry reply = %q", reply)
	}
}

func TestPaidChargeDoesNotUnlockNextBooking(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "book a hot stone massage tomorrow at 2pm")
	if !strings.Contains(reply, "https://pay.test/ch_1") {
		t.Fatalf("deposit request = %q", reply)
	}
	h.processor.pay("ch_1")
	if reply = h.say(t, "paid it"); !strings.Contains(reply, "all set") {
		t.Fatalf("first confirmation = %q", reply)
	}

	// Second deposit-gated booking while charge creation is down.
	h.processor.mu.Lock()
	h.processor.createErr = errors.New("gateway down")
	h.processor.mu.Unlock()

	reply = h.say(t, "also book a couples massage on wednesday at 3pm")
	if !strings.Contains(reply, "try again") {
		t.Fatalf("outage reply = %q", reply)
	}

	// The hot stone charge is paid, but it must not cover the new booking.
	reply = h.say(t, "did it go through?")
	if strings.Contains(reply, "all set") {
		t.Fatalf("confirmed with no payment: %q", reply)
	}
	couples := h.appointmentForService(t, "couples")
	if couples.Status != models.StatusPending || couples.PaymentStatus != models.PaymentUnpaid {
		t.Fatalf("couples appointment: %+v", couples)
	}

	// Once the gateway recovers the client gets a fresh charge of its own.
	h.processor.mu.Lock()
	h.processor.createErr = nil
	h.processor.mu.Unlock()

	reply = h.say(t, "ok now?")
	if !strings.Contains(reply, "https://pay.test/ch_2") {
		t.Fatalf("fresh link reply = %q", reply)
	}
	h.processor.mu.Lock()
	meta := h.processor.metadata["ch_2"]
	h.processor.mu.Unlock()
	if meta["appointment_id"] != couples.ID {
		t.Fatalf("charge metadata appointment = %q, want %q", meta["appointment_id"], couples.ID)
	}

	h.processor.pay("ch_2")
	if reply = h.say(t, "paid now"); !strings.Contains(reply, "all set") {
		t.Fatalf("final confirmation = %q", reply)
	}
	couples = h.appointmentForService(t, "couples")
	if couples.Status != models.StatusConfirmed || couples.PaymentStatus != models.PaymentDepositPaid {
		t.Fatalf("couples after payment: %+v", couples)
	}
}

func TestConflictOffersAlternatives(t *testing.T) {
	h := newHarness(t)

	// Another client holds tomorrow 14:00.
	if _, err := h.lifecycle.Create("555-999-0000", "swedish", "2026-03-03", "14:00"); err != nil {
		t.Fatal(err)
	}

	reply := h.say(t, "book a swedish massage tomorrow at 2pm")
	if !strings.Contains(reply, "already taken") || !strings.Contains(reply, "13:00") {
		t.Fatalf("conflict reply = %q", reply)
	}

	// Picking one of the offered times completes the booking.
	reply = h.say(t, "13:00 then")
	if !strings.Contains(reply, "all set") {
		t.Fatalf("follow-up reply = %q", reply)
	}

	appt := h.onlyAppointment(t)
	if appt.Time != "13:00" {
		t.Fatalf("booked at %s, want 13:00", appt.Time)
	}
}

func TestClosedDayBouncesBackToDate(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "book a swedish massage on sunday at 2pm")
	if !strings.Contains(reply, "closed") {
		t.Fatalf("closed-day reply = %q", reply)
	}

	reply = h.say(t, "tuesday then, 2pm")
	if !strings.Contains(reply, "all set") {
		t.Fatalf("retry reply = %q", reply)
	}
	appt := h.onlyAppointment(t)
	if appt.Date != "2026-03-03" {
		t.Fatalf("booked %s, want Tuesday 2026-03-03", appt.Date)
	}
}

func TestCancelFlow(t *testing.T) {
	h := newHarness(t)
	h.say(t, "book a swedish massage tomorrow at 10am")

	reply := h.say(t, "I need to cancel my appointment")
	if !strings.Contains(reply, "cancelled") {
		t.Fatalf("cancel reply = %q", reply)
	}

	appt := h.onlyAppointment(t)
	if appt.Status != models.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", appt.Status)
	}
}

func TestCancelWithNothingBooked(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "cancel my appointment")
	if !strings.Contains(reply, "couldn't find") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestCancelInterruptDiscardsDraft(t *testing.T) {
	h := newHarness(t)
	h.say(t, "book a swedish massage tomorrow at 10am")

	// Start a second booking, then bail out mid-flow.
	h.say(t, "book a deep tissue")
	h.say(t, "cancel")

	// The interrupt cancelled the existing appointment and dropped the
	// half-built draft; a fresh message starts clean.
	reply := h.say(t, "hi")
	if !strings.Contains(reply, "Welcome") {
		t.Fatalf("post-cancel greeting = %q", reply)
	}
}

func TestRescheduleFlow(t *testing.T) {
	h := newHarness(t)
	h.say(t, "book a swedish massage tomorrow at 10am")

	reply := h.say(t, "can we reschedule?")
	if !strings.Contains(reply, "What day") {
		t.Fatalf("reschedule prompt = %q", reply)
	}

	reply = h.say(t, "wednesday")
	if !strings.Contains(reply, "09:00") {
		t.Fatalf("slot listing = %q", reply)
	}

	reply = h.say(t, "3pm")
	if !strings.Contains(reply, "moved to") {
		t.Fatalf("reschedule confirmation = %q", reply)
	}

	appt := h.onlyAppointment(t)
	if appt.Date != "2026-03-04" || appt.Time != "15:00" {
		t.Fatalf("moved to %s %s", appt.Date, appt.Time)
	}
	if appt.Status != models.StatusConfirmed {
		t.Fatalf("status = %q, want confirmed", appt.Status)
	}
}

func TestRescheduleInOneMessage(t *testing.T) {
	h := newHarness(t)
	h.say(t, "book a swedish massage tomorrow at 10am")

	reply := h.say(t, "reschedule to wednesday at 3pm")
	if !strings.Contains(reply, "moved to") {
		t.Fatalf("reply = %q", reply)
	}
	appt := h.onlyAppointment(t)
	if appt.Date != "2026-03-04" || appt.Time != "15:00" {
		t.Fatalf("moved to %s %s", appt.Date, appt.Time)
	}
}

func TestAvailabilityQuestion(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "do you have any openings?")
	if !strings.Contains(reply, "openings on") {
		t.Fatalf("availability reply = %q", reply)
	}
}

func TestNameCapture(t *testing.T) {
	h := newHarness(t)

	h.say(t, "Hi, my name is Jane Doe")
	client, err := h.clients.GetByPhone(testPhone)
	if err != nil {
		t.Fatal(err)
	}
	if client == nil || client.Name != "Jane Doe" {
		t.Fatalf("client = %+v, want name Jane Doe", client)
	}
}

func TestUnknownMessageGetsFallback(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "qwerty asdf")
	if !strings.Contains(reply, "didn't quite catch") {
		t.Fatalf("fallback reply = %q", reply)
	}
}

package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"serenity/config"
	appointmentRepo "serenity/database/repository/appointment"
	"serenity/models"
)

// maxAlternatives caps how many nearby slots a conflict rejection suggests.
const maxAlternatives = 3

// Engine computes availability, validates slot requests against the business
// policy and quotes prices.
type Engine interface {
	// AvailableSlots lists every free start time ("HH:MM") on the date for a
	// booking of the given duration. Empty on non-business days.
	AvailableSlots(date string, durationMin int) ([]string, error)
	// AvailableDates lists upcoming business dates with at least one free
	// slot, up to daysAhead days out.
	AvailableDates(daysAhead int) ([]string, error)
	// ValidateRequest checks a service/date/time request; a *ValidationError
	// names the first failing rule.
	ValidateRequest(serviceID, date, timeStr string) error
	// ValidateRequestExcluding is ValidateRequest with one appointment left
	// out of conflict checks; used when rescheduling that appointment.
	ValidateRequestExcluding(serviceID, date, timeStr, excludeID string) error
	// Quote prices a service under the deposit policy.
	Quote(serviceID string) (models.Quote, error)
}

// DefaultEngine is the production implementation over an appointment
// repository and a business-config snapshot.
type DefaultEngine struct {
	Repo appointmentRepo.AppointmentRepository
	Cfg  *config.BusinessConfig
	Now  func() time.Time
}

// NewEngine builds an engine with the real clock.
func NewEngine(repo appointmentRepo.AppointmentRepository, cfg *config.BusinessConfig) *DefaultEngine {
	return &DefaultEngine{Repo: repo, Cfg: cfg, Now: time.Now}
}

func (e *DefaultEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// AvailableSlots generates every granularity boundary within business hours,
// drops slots that would run past closing, slots inside the minimum-lead
// window and slots overlapping a non-cancelled appointment.
func (e *DefaultEngine) AvailableSlots(date string, durationMin int) ([]string, error) {
	now := e.now()
	day, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return nil, nil
	}

	hours, open := e.Cfg.HoursFor(day.Weekday().String())
	if !open {
		return nil, nil
	}

	openMin, err := minutesOfDay(hours.Open)
	if err != nil {
		return nil, fmt.Errorf("malformed opening time %q: %w", hours.Open, err)
	}
	closeMin, err := minutesOfDay(hours.Close)
	if err != nil {
		return nil, fmt.Errorf("malformed closing time %q: %w", hours.Close, err)
	}

	busy, err := e.activeIntervals(date, "")
	if err != nil {
		return nil, err
	}

	granularity := e.Cfg.SlotGranularityMin
	earliest := now.Add(time.Duration(e.Cfg.MinLeadHours) * time.Hour)

	var slots []string
	for start := openMin; start+durationMin <= closeMin; start += granularity {
		slotStart := day.Add(time.Duration(start) * time.Minute)
		if slotStart.Before(earliest) {
			continue
		}
		if overlapsAny(start, start+durationMin, busy) {
			continue
		}
		slots = append(slots, formatMinutes(start))
	}
	return slots, nil
}

// AvailableDates scans forward from tomorrow for business dates that still
// have at least one slot for the shortest catalog service.
func (e *DefaultEngine) AvailableDates(daysAhead int) ([]string, error) {
	duration := e.Cfg.ShortestServiceDuration()
	now := e.now()

	var dates []string
	for i := 1; i <= daysAhead; i++ {
		date := now.AddDate(0, 0, i).Format("2006-01-02")
		slots, err := e.AvailableSlots(date, duration)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			dates = append(dates, date)
		}
	}
	return dates, nil
}

// ValidateRequest composes the policy checks in order; the first failure
// wins.
func (e *DefaultEngine) ValidateRequest(serviceID, date, timeStr string) error {
	return e.ValidateRequestExcluding(serviceID, date, timeStr, "")
}

func (e *DefaultEngine) ValidateRequestExcluding(serviceID, date, timeStr, excludeID string) error {
	svc, ok := e.Cfg.ServiceByID(serviceID)
	if !ok {
		return &ValidationError{Reason: ReasonUnknownService, Message: fmt.Sprintf("service %q is not offered", serviceID)}
	}

	now := e.now()
	day, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return &ValidationError{Reason: ReasonNonBusinessDay, Message: fmt.Sprintf("%q is not a valid date", date)}
	}

	hours, open := e.Cfg.HoursFor(day.Weekday().String())
	if !open {
		return &ValidationError{Reason: ReasonNonBusinessDay, Message: fmt.Sprintf("we are closed on %s", day.Weekday())}
	}

	startMin, err := minutesOfDay(timeStr)
	if err != nil {
		return &ValidationError{Reason: ReasonOutsideHours, Message: fmt.Sprintf("%q is not a valid time", timeStr)}
	}
	start := day.Add(time.Duration(startMin) * time.Minute)

	if start.Before(now.Add(time.Duration(e.Cfg.MinLeadHours) * time.Hour)) {
		return &ValidationError{
			Reason:  ReasonTooSoon,
			Message: fmt.Sprintf("appointments need at least %d hours notice", e.Cfg.MinLeadHours),
		}
	}
	if start.After(now.AddDate(0, 0, e.Cfg.MaxAdvanceDays)) {
		return &ValidationError{
			Reason:  ReasonTooFarAhead,
			Message: fmt.Sprintf("appointments can be booked at most %d days ahead", e.Cfg.MaxAdvanceDays),
		}
	}

	openMin, _ := minutesOfDay(hours.Open)
	closeMin, _ := minutesOfDay(hours.Close)
	if startMin < openMin || startMin+svc.DurationMin > closeMin {
		return &ValidationError{
			Reason:  ReasonOutsideHours,
			Message: fmt.Sprintf("that time falls outside our %s-%s hours", hours.Open, hours.Close),
		}
	}

	busy, err := e.activeIntervals(date, excludeID)
	if err != nil {
		return err
	}
	if overlapsAny(startMin, startMin+svc.DurationMin, busy) {
		alternatives, altErr := e.nearestSlots(date, timeStr, svc.DurationMin)
		if altErr != nil {
			alternatives = nil
		}
		return &ValidationError{
			Reason:       ReasonSlotConflict,
			Message:      "that time slot is already taken",
			Alternatives: alternatives,
		}
	}
	return nil
}

// Quote prices a service; deposits are zero when the service is not in the
// deposit-required set.
func (e *DefaultEngine) Quote(serviceID string) (models.Quote, error) {
	svc, ok := e.Cfg.ServiceByID(serviceID)
	if !ok {
		return models.Quote{}, &ValidationError{Reason: ReasonUnknownService, Message: fmt.Sprintf("service %q is not offered", serviceID)}
	}
	return models.Quote{
		ServiceID:     svc.ID,
		Price:         svc.Price,
		DepositAmount: CalculateDeposit(svc, e.Cfg.Deposit),
		Currency:      e.Cfg.Currency,
	}, nil
}

// nearestSlots returns free slots on the date ordered by absolute distance
// from the requested time, capped at maxAlternatives.
func (e *DefaultEngine) nearestSlots(date, timeStr string, durationMin int) ([]string, error) {
	slots, err := e.AvailableSlots(date, durationMin)
	if err != nil || len(slots) == 0 {
		return nil, err
	}
	requested, err := minutesOfDay(timeStr)
	if err != nil {
		return nil, nil
	}

	sort.SliceStable(slots, func(i, j int) bool {
		a, _ := minutesOfDay(slots[i])
		b, _ := minutesOfDay(slots[j])
		return abs(a-requested) < abs(b-requested)
	})
	if len(slots) > maxAlternatives {
		slots = slots[:maxAlternatives]
	}
	return slots, nil
}

// interval is a booked [Start, End) range in minutes from midnight.
type interval struct {
	Start int
	End   int
}

func (e *DefaultEngine) activeIntervals(date, excludeID string) ([]interval, error) {
	appts, err := e.Repo.GetByDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments for %s: %w", date, err)
	}
	var busy []interval
	for _, a := range appts {
		if !a.Active() || a.ID == excludeID {
			continue
		}
		start, err := minutesOfDay(a.Time)
		if err != nil {
			continue
		}
		busy = append(busy, interval{Start: start, End: start + a.DurationMin})
	}
	return busy, nil
}

// overlapsAny applies the half-open interval rule: [a,b) and [c,d) conflict
// iff a < d && c < b.
func overlapsAny(start, end int, busy []interval) bool {
	for _, b := range busy {
		if start < b.End && b.Start < end {
			return true
		}
	}
	return false
}

func minutesOfDay(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range time %q", hhmm)
	}
	return h*60 + m, nil
}

func formatMinutes(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

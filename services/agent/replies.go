package agent

import (
	"fmt"
	"strings"
	"time"

	"serenity/config"
	"serenity/models"
)

// Reply templates. Kept in one place so the conversational voice stays
// consistent across stages.

func replyWelcome(cfg *config.BusinessConfig) string {
	return fmt.Sprintf("Welcome to %s! I can help you book an appointment, check availability, or answer questions about our services. What would you like?", cfg.Name)
}

func replyFallback() string {
	return "I'm sorry, I didn't quite catch that. I can help you book an appointment, check availability, or tell you about our services."
}

func replyTransientFailure() string {
	return "I'm sorry, something went wrong on our end. Please try again in a moment."
}

func replyServicesMenu(cfg *config.BusinessConfig) string {
	var b strings.Builder
	b.WriteString("Here's what we offer:\n")
	for _, svc := range cfg.Services {
		fmt.Fprintf(&b, "- %s (%d min): $%.0f", svc.Name, svc.DurationMin, svc.Price)
		if svc.DepositRequired {
			b.WriteString(" (deposit required)")
		}
		b.WriteString("\n")
	}
	b.WriteString("Which one would you like to book?")
	return b.String()
}

func replyAskService() string {
	return "Which service would you like? You can ask to see the full menu if you're not sure."
}

func replyAskDate(svc models.Service) string {
	return fmt.Sprintf("Great choice, a %s it is. What day works for you?", svc.Name)
}

func replyAskTime(date string, slots []string) string {
	if len(slots) == 0 {
		return fmt.Sprintf("Unfortunately %s is fully booked. Could you pick another day?", humanDate(date))
	}
	return fmt.Sprintf("On %s we have these times open: %s. Which works for you?", humanDate(date), strings.Join(slots, ", "))
}

func replyAvailableDates(dates []string) string {
	if len(dates) == 0 {
		return "I'm sorry, we're fully booked for the next while. Please check back soon."
	}
	shown := dates
	if len(shown) > 5 {
		shown = shown[:5]
	}
	human := make([]string, len(shown))
	for i, d := range shown {
		human[i] = humanDate(d)
	}
	return fmt.Sprintf("We have openings on %s. Which day would you like?", strings.Join(human, ", "))
}

func replyDepositRequest(svc models.Service, amount float64, paymentURL string) string {
	return fmt.Sprintf("To secure your %s, we ask for a $%.2f deposit. You can pay here: %s. Your booking will be confirmed as soon as the deposit comes through.", svc.Name, amount, paymentURL)
}

func replyDepositPending(paymentURL string) string {
	return fmt.Sprintf("I haven't seen your deposit yet. You can complete it here: %s", paymentURL)
}

func replyConfirmed(svc models.Service, appt *models.Appointment) string {
	return fmt.Sprintf("You're all set! Your %s is booked for %s at %s. We look forward to seeing you.", svc.Name, humanDate(appt.Date), appt.Time)
}

func replyNoUpcoming() string {
	return "I couldn't find any upcoming appointments under your number."
}

func replyCancelled(appt *models.Appointment, refund float64, refundFailed bool) string {
	base := fmt.Sprintf("Your appointment on %s at %s has been cancelled.", humanDate(appt.Date), appt.Time)
	switch {
	case refundFailed:
		return base + fmt.Sprintf(" Your $%.2f deposit refund is being processed and will reach you shortly.", refund)
	case refund > 0:
		return base + fmt.Sprintf(" A $%.2f refund of your deposit is on its way.", refund)
	case appt.DepositPaid && appt.DepositAmount > 0:
		return base + " As the cancellation was inside our notice window, the deposit is non-refundable."
	default:
		return base
	}
}

func replyAskRescheduleDate(appt *models.Appointment) string {
	return fmt.Sprintf("Sure, let's move your appointment currently on %s at %s. What day would you prefer?", humanDate(appt.Date), appt.Time)
}

func replyRescheduled(appt *models.Appointment) string {
	return fmt.Sprintf("Done! Your appointment has been moved to %s at %s.", humanDate(appt.Date), appt.Time)
}

// replyRejection phrases an engine rejection and, on conflicts, offers the
// nearest free slots.
func replyRejection(msg string, alternatives []string) string {
	out := "I'm sorry, " + msg + "."
	if len(alternatives) > 0 {
		out += fmt.Sprintf(" The closest open times are %s. Would any of those work?", strings.Join(alternatives, ", "))
	}
	return out
}

// humanDate renders "2026-09-03" as "Thursday, September 3".
func humanDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2")
}

package nlu

import (
	"strings"
	"time"

	"serenity/config"
)

// Intent is the actionable category detected in a client message.
type Intent string

const (
	IntentGreet           Intent = "greet"
	IntentBook            Intent = "book"
	IntentReschedule      Intent = "reschedule"
	IntentCancel          Intent = "cancel"
	IntentAskServices     Intent = "ask_services"
	IntentAskAvailability Intent = "ask_availability"
	IntentProvideInfo     Intent = "provide_info"
	IntentUnknown         Intent = "unknown"
)

// Entities are the slot candidates pulled out of a message, each best-effort
// and optional. Empty string means "not found", never a guess.
type Entities struct {
	ServiceID string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
	Name      string
	Email     string
}

// Empty reports whether nothing at all was extracted.
func (e Entities) Empty() bool {
	return e.ServiceID == "" && e.Date == "" && e.Time == "" && e.Name == "" && e.Email == ""
}

// intentRule pairs an intent with the phrases that signal it. Rules are
// evaluated in order; interrupts (cancel, reschedule) sit ahead of booking
// so "cancel my appointment" never reads as a booking request.
type intentRule struct {
	intent  Intent
	phrases []string
}

var intentRules = []intentRule{
	{IntentCancel, []string{"cancel", "not coming", "wont make it", "won't make it", "call off"}},
	{IntentReschedule, []string{"reschedule", "change my appointment", "move my appointment", "change my booking", "move my booking", "different time", "different day"}},
	{IntentGreet, []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening"}},
	{IntentAskAvailability, []string{"availability", "available", "what times", "when are you open", "openings", "slots", "free"}},
	{IntentAskServices, []string{"services", "what do you offer", "menu", "price", "pricing", "how much", "cost", "rates"}},
	{IntentBook, []string{"book", "booking", "schedule", "appointment", "reserve", "session"}},
}

// Extractor turns raw text into an intent plus slot candidates. It is a pure
// function of the input text and the catalog/config snapshot; Now is
// injectable so relative dates are testable.
type Extractor struct {
	cfg *config.BusinessConfig
	Now func() time.Time
}

// NewExtractor builds an extractor over a catalog snapshot.
func NewExtractor(cfg *config.BusinessConfig) *Extractor {
	return &Extractor{cfg: cfg, Now: time.Now}
}

// Extract classifies the message and pulls out every entity it can. When no
// intent pattern matches but entities were found, the message is treated as
// volunteered information.
func (e *Extractor) Extract(text string) (Intent, Entities) {
	entities := Entities{
		ServiceID: e.ExtractService(text),
		Date:      e.ExtractDate(text),
		Time:      e.ExtractTime(text),
		Name:      e.ExtractName(text),
		Email:     e.ExtractEmail(text),
	}

	intent := e.ClassifyIntent(text)
	if intent == IntentUnknown && !entities.Empty() {
		intent = IntentProvideInfo
	}
	return intent, entities
}

// ClassifyIntent matches the ordered rule list against a normalized copy of
// the text. The first rule with a matching phrase wins; within a rule the
// longest matching phrase is preferred so specific patterns beat their
// substrings.
func (e *Extractor) ClassifyIntent(text string) Intent {
	normalized := normalize(text)
	if normalized == "" {
		return IntentUnknown
	}
	words := " " + normalized + " "

	for _, rule := range intentRules {
		best := ""
		for _, phrase := range rule.phrases {
			if len(phrase) <= len(best) {
				continue
			}
			if strings.Contains(words, " "+phrase+" ") {
				best = phrase
			}
		}
		if best != "" {
			return rule.intent
		}
	}
	return IntentUnknown
}

// normalize lowercases and strips punctuation so phrase matching does not
// trip over "book!" or "Hi,".
func normalize(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\'':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

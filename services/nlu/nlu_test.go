package nlu

import (
	"testing"
	"time"

	"serenity/config"
)

// testNow is a Monday morning so weekday resolution is deterministic.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestExtractor() *Extractor {
	e := NewExtractor(config.DefaultBusinessConfig())
	e.Now = func() time.Time { return testNow }
	return e
}

func TestClassifyIntent(t *testing.T) {
	e := newTestExtractor()

	cases := []struct {
		text string
		want Intent
	}{
		{"Hi there!", IntentGreet},
		{"hello", IntentGreet},
		{"I'd like to book a massage", IntentBook},
		{"can I schedule an appointment?", IntentBook},
		{"I need to cancel my appointment", IntentCancel},
		{"I won't make it tomorrow", IntentCancel},
		{"can we reschedule my booking?", IntentReschedule},
		{"I need a different time", IntentReschedule},
		{"what services do you offer?", IntentAskServices},
		{"how much is a massage?", IntentAskServices},
		{"do you have any openings tomorrow?", IntentAskAvailability},
		{"when are you open?", IntentAskAvailability},
		{"qwerty asdf", IntentUnknown},
	}
	for _, tc := range cases {
		if got := e.ClassifyIntent(tc.text); got != tc.want {
			t.Errorf("ClassifyIntent(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestCancelBeatsBookOnMixedMessage(t *testing.T) {
	e := newTestExtractor()
	// "appointment" alone signals booking; with "cancel" present the
	// interrupt must win.
	if got := e.ClassifyIntent("please cancel my appointment"); got != IntentCancel {
		t.Fatalf("got %q, want %q", got, IntentCancel)
	}
}

func TestExtractTreatsBareEntitiesAsProvideInfo(t *testing.T) {
	e := newTestExtractor()

	intent, entities := e.Extract("swedish please")
	if intent != IntentProvideInfo {
		t.Fatalf("intent = %q, want %q", intent, IntentProvideInfo)
	}
	if entities.ServiceID != "swedish" {
		t.Fatalf("ServiceID = %q, want swedish", entities.ServiceID)
	}
}

func TestExtractFullBookingMessage(t *testing.T) {
	e := newTestExtractor()

	intent, entities := e.Extract("I'd like to book a hot stone massage tomorrow at 2pm")
	if intent != IntentBook {
		t.Fatalf("intent = %q, want book", intent)
	}
	if entities.ServiceID != "hot_stone" {
		t.Errorf("ServiceID = %q, want hot_stone", entities.ServiceID)
	}
	if entities.Date != "2026-03-03" {
		t.Errorf("Date = %q, want 2026-03-03", entities.Date)
	}
	if entities.Time != "14:00" {
		t.Errorf("Time = %q, want 14:00", entities.Time)
	}
}

func TestExtractUnknownWithoutEntitiesStaysUnknown(t *testing.T) {
	e := newTestExtractor()

	intent, entities := e.Extract("lorem ipsum dolor")
	if intent != IntentUnknown {
		t.Fatalf("intent = %q, want unknown", intent)
	}
	if !entities.Empty() {
		t.Fatalf("expected no entities, got %+v", entities)
	}
}

package nlu

import "testing"

func TestExtractDate(t *testing.T) {
	e := newTestExtractor()

	cases := []struct {
		text string
		want string
	}{
		{"can I come in today", "2026-03-02"},
		{"tomorrow works", "2026-03-03"},
		{"sometime next week", "2026-03-09"},
		{"friday please", "2026-03-06"},
		// A weekday naming today resolves to today, not next week.
		{"this monday", "2026-03-02"},
		{"march 10 would be great", "2026-03-10"},
		{"how about March 10th", "2026-03-10"},
		{"3/15", "2026-03-15"},
		{"03/15/2026", "2026-03-15"},
		// Past dates are rejected, never corrected forward.
		{"february 10", ""},
		{"2/10", ""},
		// Nonsense month components are rejected.
		{"15/40", ""},
		{"no date here", ""},
	}
	for _, tc := range cases {
		if got := e.ExtractDate(tc.text); got != tc.want {
			t.Errorf("ExtractDate(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestExtractDateDayFirstOrder(t *testing.T) {
	e := newTestExtractor()
	e.cfg.DateOrder = "dmy"
	defer func() { e.cfg.DateOrder = "mdy" }()

	if got := e.ExtractDate("15/3"); got != "2026-03-15" {
		t.Fatalf("ExtractDate(15/3) = %q, want 2026-03-15", got)
	}
}

func TestExtractTime(t *testing.T) {
	e := newTestExtractor()

	cases := []struct {
		text string
		want string
	}{
		{"at 2pm", "14:00"},
		{"2:30 pm", "14:30"},
		{"around 9am", "09:00"},
		{"14:00 works", "14:00"},
		{"12pm", "12:00"},
		{"12am", "00:00"},
		// Off-granularity times are rejected rather than rounded.
		{"2:45pm", ""},
		{"10:10", ""},
		// Out-of-range values are rejected.
		{"25:00", ""},
		{"13pm", ""},
		{"no time here", ""},
	}
	for _, tc := range cases {
		if got := e.ExtractTime(tc.text); got != tc.want {
			t.Errorf("ExtractTime(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestExtractService(t *testing.T) {
	e := newTestExtractor()

	cases := []struct {
		text string
		want string
	}{
		{"I'd love a swedish massage", "swedish"},
		{"deep tissue please", "deep_tissue"},
		{"do you do hot stone?", "hot_stone"},
		{"something with essential oils", "aromatherapy"},
		{"my partner and I want a couples session", "couples"},
		{"just a haircut", ""},
	}
	for _, tc := range cases {
		if got := e.ExtractService(tc.text); got != tc.want {
			t.Errorf("ExtractService(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestExtractName(t *testing.T) {
	e := newTestExtractor()

	cases := []struct {
		text string
		want string
	}{
		{"Hi, my name is Jane", "Jane"},
		{"my name is Jane Doe", "Jane Doe"},
		{"This is Marcus.", "Marcus"},
		{"I'm Alice and I'd like to book", "Alice"},
		// Lowercase tokens after the phrase are not taken as names.
		{"my name is lowercase", ""},
		{"no introduction here", ""},
	}
	for _, tc := range cases {
		if got := e.ExtractName(tc.text); got != tc.want {
			t.Errorf("ExtractName(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestExtractEmail(t *testing.T) {
	e := newTestExtractor()

	if got := e.ExtractEmail("reach me at jane.doe+spa@example.co.uk thanks"); got != "jane.doe+spa@example.co.uk" {
		t.Fatalf("ExtractEmail = %q", got)
	}
	if got := e.ExtractEmail("no address here"); got != "" {
		t.Fatalf("ExtractEmail = %q, want empty", got)
	}
}

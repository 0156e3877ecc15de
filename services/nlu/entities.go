package nlu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailPattern     = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	clockPattern     = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm|a\.m\.|p\.m\.)?\b`)
	hourOnlyPattern  = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm|a\.m\.|p\.m\.)\b`)
	numericDate      = regexp.MustCompile(`\b(\d{1,2})[/\-](\d{1,2})(?:[/\-](\d{4}))?\b`)
	monthDayPattern  = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	namePhrases      = []string{"my name is ", "this is ", "i am ", "i'm ", "name's "}
	weekdaysInOrder  = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	monthsByName     = map[string]time.Month{"january": time.January, "february": time.February, "march": time.March, "april": time.April, "may": time.May, "june": time.June, "july": time.July, "august": time.August, "september": time.September, "october": time.October, "november": time.November, "december": time.December}
)

// ExtractService matches the catalog's names and aliases case-insensitively;
// on multiple matches the longest matching alias wins.
func (e *Extractor) ExtractService(text string) string {
	lower := strings.ToLower(text)

	bestID := ""
	bestLen := 0
	for _, svc := range e.cfg.Services {
		candidates := append([]string{svc.Name}, svc.Aliases...)
		for _, alias := range candidates {
			a := strings.ToLower(alias)
			if len(a) > bestLen && strings.Contains(lower, a) {
				bestID = svc.ID
				bestLen = len(a)
			}
		}
	}
	return bestID
}

// ExtractDate recognizes relative terms (today, tomorrow, weekday names) and
// absolute forms (month-name day, numeric pairs in the configured order).
// A date that resolves to the past is rejected, never silently corrected.
func (e *Extractor) ExtractDate(text string) string {
	lower := strings.ToLower(text)
	now := e.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if strings.Contains(lower, "today") {
		return today.Format("2006-01-02")
	}
	if strings.Contains(lower, "tomorrow") {
		return today.AddDate(0, 0, 1).Format("2006-01-02")
	}
	if strings.Contains(lower, "next week") {
		return today.AddDate(0, 0, 7).Format("2006-01-02")
	}

	// Weekday names resolve to the next occurrence on or after today.
	for i, day := range weekdaysInOrder {
		if !strings.Contains(lower, day) {
			continue
		}
		ahead := (i - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, ahead).Format("2006-01-02")
	}

	if m := monthDayPattern.FindStringSubmatch(lower); m != nil {
		month := monthsByName[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		candidate := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
		if candidate.Day() != day || candidate.Before(today) {
			return ""
		}
		return candidate.Format("2006-01-02")
	}

	if m := numericDate.FindStringSubmatch(text); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		month, day := first, second
		if e.cfg.DateOrder == "dmy" {
			month, day = second, first
		}
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		if month < 1 || month > 12 {
			return ""
		}
		candidate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		if candidate.Day() != day || int(candidate.Month()) != month || candidate.Before(today) {
			return ""
		}
		return candidate.Format("2006-01-02")
	}

	return ""
}

// ExtractTime recognizes 12-hour and 24-hour forms. The result must land
// exactly on a slot-granularity boundary or it is rejected.
func (e *Extractor) ExtractTime(text string) string {
	hour, minute, ok := parseClock(text)
	if !ok {
		return ""
	}

	granularity := e.cfg.SlotGranularityMin
	if granularity <= 0 {
		granularity = 30
	}
	if (hour*60+minute)%granularity != 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func parseClock(text string) (hour, minute int, ok bool) {
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if !applyPeriod(&hour, m[3]) || hour > 23 || minute > 59 {
			return 0, 0, false
		}
		return hour, minute, true
	}
	if m := hourOnlyPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if !applyPeriod(&hour, m[2]) || hour > 23 {
			return 0, 0, false
		}
		return hour, 0, true
	}
	return 0, 0, false
}

// applyPeriod folds an am/pm suffix into a 24-hour value. Without a suffix
// the hour is taken as 24-hour form.
func applyPeriod(hour *int, period string) bool {
	p := strings.ToLower(strings.ReplaceAll(period, ".", ""))
	switch p {
	case "":
		return true
	case "pm":
		if *hour < 1 || *hour > 12 {
			return false
		}
		if *hour != 12 {
			*hour += 12
		}
		return true
	case "am":
		if *hour < 1 || *hour > 12 {
			return false
		}
		if *hour == 12 {
			*hour = 0
		}
		return true
	}
	return false
}

// ExtractName looks for a capitalized token sequence following an
// introductory phrase. Without the phrase it stays absent; guessing names
// from arbitrary capitalized words is worse than asking.
func (e *Extractor) ExtractName(text string) string {
	lower := strings.ToLower(text)
	for _, phrase := range namePhrases {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			continue
		}
		rest := strings.Fields(text[idx+len(phrase):])
		var parts []string
		for _, tok := range rest {
			trimmed := strings.Trim(tok, ".,!?")
			if trimmed == "" || !isCapitalized(trimmed) {
				break
			}
			parts = append(parts, trimmed)
			if len(parts) == 2 {
				break
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return ""
}

func isCapitalized(tok string) bool {
	r := rune(tok[0])
	return r >= 'A' && r <= 'Z'
}

// ExtractEmail matches a standard address pattern.
func (e *Extractor) ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

package chat

import (
	"regexp"
	"strings"
)

type Intent string

const (
	IntentGeneral Intent = "general"
	IntentBooking Intent = "booking"
)

// Questions about the assistant itself stay general even when they mention
// booking words.
var metaKeywords = []string{"project", "requirements", "objective", "overview", "how it works"}

var bookingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bbook\b`),
	regexp.MustCompile(`\bbook\s+(a|an|the)\b`),
	regexp.MustCompile(`\bmake\s+a\s+booking\b`),
	regexp.MustCompile(`\bcreate\s+a\s+booking\b`),
	regexp.MustCompile(`\breserve\b`),
	regexp.MustCompile(`\breservation\b`),
	regexp.MustCompile(`\bschedule\b`),
	regexp.MustCompile(`\bappointment\b`),
	regexp.MustCompile(`\bcancel\s+my\s+booking\b`),
	regexp.MustCompile(`\bchange\s+my\s+booking\b`),
}

func DetectIntent(text string) Intent {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, kw := range metaKeywords {
		if strings.Contains(t, kw) {
			return IntentGeneral
		}
	}
	for _, p := range bookingPatterns {
		if p.MatchString(t) {
			return IntentBooking
		}
	}
	return IntentGeneral
}

// Normalize folds case and whitespace so repeated questions compare equal.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

package booking

import (
	"regexp"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	minPhoneDigits = 7
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nonDigitRegex = regexp.MustCompile(`\D`)
)

// ValidationError is returned for a field value the user has to re-enter.
// Message is meant to be shown to the user as is.
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateField reports whether raw is an acceptable value for field and,
// if not, the message explaining what is expected. Unknown fields are
// always accepted.
func ValidateField(field Field, raw string) (bool, string) {
	if err := Validate(field, raw); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func Validate(field Field, raw string) error {
	value := strings.TrimSpace(raw)
	switch field {
	case FieldName, FieldBookingType:
		if value == "" {
			return invalid(field, "Please provide a valid "+field.Label()+".")
		}
	case FieldEmail:
		if !emailRegex.MatchString(value) {
			return invalid(field, "That email address doesn't look valid. Please enter a valid email (e.g. name@example.com).")
		}
	case FieldPhone:
		if len(nonDigitRegex.ReplaceAllString(value, "")) < minPhoneDigits {
			return invalid(field, "Please provide a valid phone number (at least 7 digits).")
		}
	case FieldDate:
		if _, err := time.Parse(DateLayout, value); err != nil {
			return invalid(field, "Please enter a valid date in the format YYYY-MM-DD.")
		}
	case FieldTime:
		if _, err := time.Parse(TimeLayout, value); err != nil {
			return invalid(field, "Please enter a valid time in 24-hour format HH:MM (e.g. 14:30).")
		}
	}
	return nil
}

func invalid(field Field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

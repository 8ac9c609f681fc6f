package booking

import (
	"fmt"
	"strings"
)

// Draft is a booking being collected. An empty string means the field has
// not been provided yet.
type Draft struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	BookingType string `json:"booking_type,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
}

// Booking is a confirmed booking. It is only built by Draft.Complete, so
// every field holds a validated value.
type Booking struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	BookingType string `json:"booking_type"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

func (d *Draft) slot(field Field) *string {
	switch field {
	case FieldName:
		return &d.Name
	case FieldEmail:
		return &d.Email
	case FieldPhone:
		return &d.Phone
	case FieldBookingType:
		return &d.BookingType
	case FieldDate:
		return &d.Date
	case FieldTime:
		return &d.Time
	}
	return nil
}

func (d Draft) Get(field Field) string {
	if p := d.slot(field); p != nil {
		return *p
	}
	return ""
}

func (d Draft) Has(field Field) bool {
	return d.Get(field) != ""
}

// Set stores value for field. Values for unknown fields are dropped.
func (d *Draft) Set(field Field, value string) {
	if p := d.slot(field); p != nil {
		*p = value
	}
}

// MissingFields reports, for every required field, whether it is still unset.
func (d Draft) MissingFields() map[Field]bool {
	res := make(map[Field]bool, len(RequiredFields))
	for _, f := range RequiredFields {
		res[f] = !d.Has(f)
	}
	return res
}

// NextMissing returns the first unset required field.
func (d Draft) NextMissing() (Field, bool) {
	for _, f := range RequiredFields {
		if !d.Has(f) {
			return f, true
		}
	}
	return "", false
}

func (d Draft) IsComplete() bool {
	_, missing := d.NextMissing()
	return !missing
}

// Complete validates every field and returns the confirmed booking.
func (d Draft) Complete() (*Booking, error) {
	for _, f := range RequiredFields {
		if err := Validate(f, d.Get(f)); err != nil {
			return nil, fmt.Errorf("complete booking: %w", err)
		}
	}
	return &Booking{
		Name:        strings.TrimSpace(d.Name),
		Email:       strings.TrimSpace(d.Email),
		Phone:       strings.TrimSpace(d.Phone),
		BookingType: strings.TrimSpace(d.BookingType),
		Date:        strings.TrimSpace(d.Date),
		Time:        strings.TrimSpace(d.Time),
	}, nil
}

// Summarize renders the draft for the confirmation step.
func Summarize(d Draft) string {
	orNA := func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return "N/A"
		}
		return v
	}
	lines := []string{
		"Here are your booking details:",
		"- Name: " + orNA(d.Name),
		"- Email: " + orNA(d.Email),
		"- Phone: " + orNA(d.Phone),
		"- Booking type: " + orNA(d.BookingType),
		"- Date: " + orNA(d.Date),
		"- Time: " + orNA(d.Time),
	}
	return strings.Join(lines, "\n")
}

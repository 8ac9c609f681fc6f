package booking

import (
	"fmt"
	"strings"
)

type Field string

const (
	FieldName        Field = "name"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
	FieldBookingType Field = "booking_type"
	FieldDate        Field = "date"
	FieldTime        Field = "time"
)

// RequiredFields lists the booking fields in the order they are collected.
var RequiredFields = []Field{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldBookingType,
	FieldDate,
	FieldTime,
}

func (f Field) String() string {
	return string(f)
}

// Label is the human readable form used in messages, e.g. "booking type".
func (f Field) Label() string {
	return strings.ReplaceAll(string(f), "_", " ")
}

// Prompt returns the question asked when the field is the next one missing.
func (f Field) Prompt() string {
	switch f {
	case FieldName:
		return "To get started, what's your full name?"
	case FieldEmail:
		return "Please provide your email address."
	case FieldPhone:
		return "What is the best phone number to reach you?"
	case FieldBookingType:
		return "What type of booking would you like to make (e.g. consultation, demo, reservation)?"
	case FieldDate:
		return "On which date would you like the booking? (format: YYYY-MM-DD)"
	case FieldTime:
		return "At what time? (24-hour format HH:MM, e.g. 14:30)"
	}
	return fmt.Sprintf("Please provide a value for %s.", string(f))
}

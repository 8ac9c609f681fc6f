package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/booking"
	"github.com/xxxsen/concierge/internal/model"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
)

const emailRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

type CustomerCreator interface {
	Create(ctx context.Context, c *model.Customer) error
}

type BookingCreator interface {
	Create(ctx context.Context, b *model.BookingRow) error
}

// ConfirmResult reports what happened after the user confirmed. A failure
// here never undoes the confirmation in the conversation.
type ConfirmResult struct {
	BookingID  string `json:"booking_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	Persisted  bool   `json:"persisted"`
	PersistErr error  `json:"-"`
	EmailSent  bool   `json:"email_sent"`
	EmailErr   error  `json:"-"`
}

type BookingService struct {
	customers CustomerCreator
	bookings  BookingCreator
	mailer    EmailSender
	now       func() time.Time
}

// NewBookingService wires persistence and mail. Either may be nil, in which
// case Confirm reports it as unavailable.
func NewBookingService(customers CustomerCreator, bookings BookingCreator, mailer EmailSender) *BookingService {
	return &BookingService{customers: customers, bookings: bookings, mailer: mailer, now: time.Now}
}

// Confirm stores the customer and the booking and then mails a confirmation.
// The email is only sent once the booking has an id.
func (s *BookingService) Confirm(ctx context.Context, b *booking.Booking) *ConfirmResult {
	logger := logutil.GetLogger(ctx)
	res := &ConfirmResult{}
	if err := s.persist(ctx, b, res); err != nil {
		res.PersistErr = err
		logger.Error("persist booking failed", zap.String("customer_id", res.CustomerID), zap.Error(err))
		return res
	}
	res.Persisted = true
	logger.Info("booking persisted", zap.String("booking_id", res.BookingID), zap.String("customer_id", res.CustomerID))

	if s.mailer == nil {
		res.EmailErr = fmt.Errorf("mail not configured: %w", appErr.ErrUnavailable)
		return res
	}
	if err := s.mailer.Send(ctx, b.Email, confirmationSubject(res.BookingID), confirmationBody(res.BookingID, b)); err != nil {
		res.EmailErr = err
		logger.Warn("send confirmation email failed", zap.String("booking_id", res.BookingID), zap.Error(err))
		return res
	}
	res.EmailSent = true
	return res
}

func (s *BookingService) persist(ctx context.Context, b *booking.Booking, res *ConfirmResult) error {
	if s.customers == nil || s.bookings == nil {
		return fmt.Errorf("booking storage not configured: %w", appErr.ErrUnavailable)
	}
	if b == nil || strings.TrimSpace(b.Name) == "" || strings.TrimSpace(b.Email) == "" || strings.TrimSpace(b.Phone) == "" ||
		strings.TrimSpace(b.BookingType) == "" || strings.TrimSpace(b.Date) == "" || strings.TrimSpace(b.Time) == "" {
		return fmt.Errorf("missing required booking fields: %w", appErr.ErrInvalid)
	}
	now := s.now().Unix()
	customer := &model.Customer{
		ID:    uuid.New().String(),
		Name:  b.Name,
		Email: b.Email,
		Phone: b.Phone,
		Ctime: now,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	res.CustomerID = customer.ID
	row := &model.BookingRow{
		ID:          uuid.New().String(),
		CustomerID:  customer.ID,
		Service:     b.BookingType,
		BookingDate: b.Date,
		BookingTime: b.Time,
		Status:      model.BookingStatusConfirmed,
		Ctime:       now,
	}
	if err := s.bookings.Create(ctx, row); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	res.BookingID = row.ID
	return nil
}

func confirmationSubject(bookingID string) string {
	return "Booking Confirmation - ID: " + bookingID
}

func confirmationBody(bookingID string, b *booking.Booking) string {
	var sb strings.Builder
	sb.WriteString("Your booking has been confirmed!\n\n")
	sb.WriteString("Booking Details:\n")
	sb.WriteString(emailRule + "\n")
	fmt.Fprintf(&sb, "Booking ID: %s\n", bookingID)
	fmt.Fprintf(&sb, "Name: %s\n", b.Name)
	fmt.Fprintf(&sb, "Email: %s\n", b.Email)
	fmt.Fprintf(&sb, "Phone: %s\n", b.Phone)
	fmt.Fprintf(&sb, "Service Type: %s\n", b.BookingType)
	fmt.Fprintf(&sb, "Date: %s\n", b.Date)
	fmt.Fprintf(&sb, "Time: %s\n", b.Time)
	sb.WriteString(emailRule + "\n\n")
	sb.WriteString("Thank you for your booking!\n\n")
	sb.WriteString("If you need to make any changes, please contact us.\n")
	return sb.String()
}

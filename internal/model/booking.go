package model

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
)

// BookingRow is a persisted booking.
type BookingRow struct {
	ID          string `json:"id"`
	CustomerID  string `json:"customer_id"`
	Service     string `json:"service"`
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
	Ctime       int64  `json:"ctime"`
}

package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/concierge/internal/model"
	"github.com/xxxsen/concierge/internal/pkg/dbutil"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
)

type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Create(ctx context.Context, b *model.BookingRow) error {
	data := map[string]interface{}{
		"id":           b.ID,
		"customer_id":  b.CustomerID,
		"service":      b.Service,
		"booking_date": b.BookingDate,
		"booking_time": b.BookingTime,
		"status":       b.Status,
		"notes":        b.Notes,
		"ctime":        b.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("bookings", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.BookingRow, error) {
	sqlStr, args, err := builder.BuildSelect("bookings", map[string]interface{}{"id": id}, bookingColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	return scanBooking(rows)
}

func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.BookingRow, error) {
	where := map[string]interface{}{
		"customer_id": customerID,
		"_orderby":    "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("bookings", where, bookingColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.BookingRow, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

var bookingColumns = []string{
	"id", "customer_id", "service", "booking_date", "booking_time", "status", "notes", "ctime",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(s rowScanner) (*model.BookingRow, error) {
	var b model.BookingRow
	if err := s.Scan(
		&b.ID,
		&b.CustomerID,
		&b.Service,
		&b.BookingDate,
		&b.BookingTime,
		&b.Status,
		&b.Notes,
		&b.Ctime,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/concierge/internal/model"
	"github.com/xxxsen/concierge/internal/pkg/dbutil"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
)

type CustomerRepo struct {
	db *sql.DB
}

func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	data := map[string]interface{}{
		"id":    c.ID,
		"name":  c.Name,
		"email": c.Email,
		"phone": c.Phone,
		"ctime": c.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("customers", []map[string]interface{}{data})
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

func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	sqlStr, args, err := builder.BuildSelect("customers", map[string]interface{}{"id": id}, []string{
		"id", "name", "email", "phone", "ctime",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var c model.Customer
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Ctime)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

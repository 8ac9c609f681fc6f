package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/concierge/internal/model"
	"github.com/xxxsen/concierge/internal/pkg/dbutil"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
)

type DocumentUploadRepo struct {
	db *sql.DB
}

func NewDocumentUploadRepo(db *sql.DB) *DocumentUploadRepo {
	return &DocumentUploadRepo{db: db}
}

func (r *DocumentUploadRepo) Create(ctx context.Context, d *model.DocumentUpload) error {
	data := map[string]interface{}{
		"id":         d.ID,
		"name":       d.Name,
		"file_key":   d.FileKey,
		"size":       d.Size,
		"chunks":     d.Chunks,
		"embed_tier": d.EmbedTier,
		"ctime":      d.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("document_uploads", []map[string]interface{}{data})
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

// ListRecent returns the newest uploads first.
func (r *DocumentUploadRepo) ListRecent(ctx context.Context, limit uint) ([]model.DocumentUpload, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
		"_limit":   []uint{0, limit},
	}
	sqlStr, args, err := builder.BuildSelect("document_uploads", where, []string{
		"id", "name", "file_key", "size", "chunks", "embed_tier", "ctime",
	})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.DocumentUpload, 0, limit)
	for rows.Next() {
		var d model.DocumentUpload
		if err := rows.Scan(&d.ID, &d.Name, &d.FileKey, &d.Size, &d.Chunks, &d.EmbedTier, &d.Ctime); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

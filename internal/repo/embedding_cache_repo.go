package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/concierge/internal/model"
	"github.com/xxxsen/concierge/internal/pkg/dbutil"
)

const upsertEmbedding = `
INSERT INTO embedding_cache (model_name, task_type, content_hash, embedding, ctime)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (model_name, task_type, content_hash) DO UPDATE SET
	embedding = EXCLUDED.embedding,
	ctime = EXCLUDED.ctime`

// EmbeddingCacheRepo keeps remote embeddings so re-ingesting a document does
// not pay for them twice.
type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

func (r *EmbeddingCacheRepo) Get(ctx context.Context, modelName, taskType, hash string) ([]float32, bool, error) {
	where := map[string]interface{}{
		"model_name":   modelName,
		"task_type":    taskType,
		"content_hash": hash,
		"_limit":       []uint{0, 1},
	}
	sqlStr, args, err := builder.BuildSelect("embedding_cache", where, []string{"embedding"})
	if err != nil {
		return nil, false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, false, rows.Err()
	}
	var vec pgvector.Vector
	if err := rows.Scan(&vec); err != nil {
		return nil, false, err
	}
	return vec.Slice(), true, nil
}

// Save inserts or refreshes one entry. gendry has no upsert, so the
// statement is written by hand.
func (r *EmbeddingCacheRepo) Save(ctx context.Context, item *model.EmbeddingCache) error {
	sqlStr, args := dbutil.Finalize(upsertEmbedding, []interface{}{
		item.Model, item.TaskType, item.Hash, pgvector.NewVector(item.Embedding), item.Ctime,
	})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// DeleteBefore removes entries created before cutoff (unix seconds).
func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("embedding_cache", map[string]interface{}{"ctime <": cutoff})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/concierge/internal/model"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
	"github.com/xxxsen/concierge/internal/testutil"
)

func TestCustomerAndBookingRepo(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	now := time.Now().Unix()
	suffix := time.Now().Format("150405.000000")

	customers := NewCustomerRepo(db)
	c := &model.Customer{ID: "cust-" + suffix, Name: "Jane", Email: "jane@example.com", Phone: "5551234567", Ctime: now}
	require.NoError(t, customers.Create(ctx, c))
	require.ErrorIs(t, customers.Create(ctx, c), appErr.ErrConflict)

	got, err := customers.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c, got)

	bookings := NewBookingRepo(db)
	b := &model.BookingRow{
		ID: "bk-" + suffix, CustomerID: c.ID, Service: "demo",
		BookingDate: "2025-07-01", BookingTime: "10:00", Status: model.BookingStatusConfirmed, Ctime: now,
	}
	require.NoError(t, bookings.Create(ctx, b))
	list, err := bookings.ListByCustomer(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, []model.BookingRow{*b}, list)

	_, err = bookings.GetByID(ctx, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestEmbeddingCacheRepo(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	repo := NewEmbeddingCacheRepo(db)
	hash := "hash-" + time.Now().Format("150405.000000")

	_, ok, err := repo.Get(ctx, "m", "RETRIEVAL_DOCUMENT", hash)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Save(ctx, &model.EmbeddingCache{
		Model: "m", TaskType: "RETRIEVAL_DOCUMENT", Hash: hash, Embedding: []float32{0.1, 0.2}, Ctime: 10,
	}))
	vec, ok, err := repo.Get(ctx, "m", "RETRIEVAL_DOCUMENT", hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.InDeltaSlice(t, []float32{0.1, 0.2}, vec, 1e-6)

	removed, err := repo.DeleteBefore(ctx, 11)
	require.NoError(t, err)
	require.GreaterOrEqual(t, removed, int64(1))
}

func TestDocumentUploadRepo(t *testing.T) {
	db := testutil.OpenTestDB(t)
	ctx := context.Background()
	repo := NewDocumentUploadRepo(db)
	d := &model.DocumentUpload{ID: "doc-" + time.Now().Format("150405.000000"), Name: "faq.pdf", Size: 42, Chunks: 3, EmbedTier: "remote", Ctime: time.Now().Unix() + 1000}
	require.NoError(t, repo.Create(ctx, d))
	list, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, *d, list[0])
}

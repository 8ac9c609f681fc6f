package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/concierge/internal/chat"
	"github.com/xxxsen/concierge/internal/session"
)

type fakeJanitor struct {
	cutoff int64
}

func (f *fakeJanitor) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	f.cutoff = cutoff
	return 3, nil
}

func TestEmbeddingCacheCleanupCutoff(t *testing.T) {
	janitor := &fakeJanitor{}
	j := NewEmbeddingCacheCleanupJob(janitor, 0)
	now := time.Unix(1_700_000_000, 0)
	j.now = func() time.Time { return now }
	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, now.Add(-30*24*time.Hour).Unix(), janitor.cutoff)

	require.NoError(t, NewEmbeddingCacheCleanupJob(nil, 1).Run(context.Background()))
}

func TestSessionCleanupJob(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a", chat.NewConversation(0)))

	require.NoError(t, NewSessionCleanupJob(store, time.Hour).Run(ctx))
	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, NewSessionCleanupJob(store, time.Millisecond).Run(ctx))
	_, err = store.Get(ctx, "a")
	require.ErrorIs(t, err, session.ErrNotFound)
}

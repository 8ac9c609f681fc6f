package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/concierge/internal/ai"
	"github.com/xxxsen/concierge/internal/filestore"
	"github.com/xxxsen/concierge/internal/model"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
	"github.com/xxxsen/concierge/internal/rag"
)

type readSeekCloser struct {
	*strings.Reader
}

func (readSeekCloser) Close() error { return nil }

func fileOf(name, body string) UploadFile {
	return UploadFile{Name: name, Size: int64(len(body)), Body: readSeekCloser{strings.NewReader(body)}}
}

type memArchive struct {
	saved map[string]string
}

func (m *memArchive) Type() string { return "mem" }

func (m *memArchive) Save(ctx context.Context, key string, r filestore.ReadSeekCloser, size int64) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.saved[key] = string(raw)
	return nil
}

type memUploads struct {
	items []model.DocumentUpload
}

func (m *memUploads) Create(ctx context.Context, d *model.DocumentUpload) error {
	m.items = append(m.items, *d)
	return nil
}

func (m *memUploads) ListRecent(ctx context.Context, limit uint) ([]model.DocumentUpload, error) {
	return m.items, nil
}

func newDocumentService(t *testing.T, archive filestore.Store, uploads UploadRecorder, maxSize int64) (*DocumentService, *rag.Store) {
	t.Helper()
	store := rag.NewStore()
	chunker, err := rag.NewChunker(20, 5)
	require.NoError(t, err)
	emb := ai.NewTieredEmbedder(nil, ai.NewHashingEmbedder(32), 0)
	return NewDocumentService(rag.NewIngestor(store, chunker, emb, nil), store, archive, uploads, maxSize), store
}

func TestUploadArchivesAndIngests(t *testing.T) {
	archive := &memArchive{saved: map[string]string{}}
	uploads := &memUploads{}
	svc, store := newDocumentService(t, archive, uploads, 0)

	res, err := svc.Upload(context.Background(), []UploadFile{
		fileOf("faq.txt", "We open at nine every weekday morning."),
		fileOf("notes.md", "# Pricing\n\nDemos are free of charge."),
	})
	require.NoError(t, err)
	require.Len(t, res.Documents, 2)
	require.Equal(t, store.Len(), res.Chunks)
	require.Equal(t, res.Chunks, res.Documents[0].Chunks+res.Documents[1].Chunks)
	require.Equal(t, string(ai.TierLocal), res.EmbedTier)
	require.Len(t, archive.saved, 2)
	require.Equal(t, "We open at nine every weekday morning.", archive.saved[res.Documents[0].FileKey])
	require.Len(t, uploads.items, 2)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, res.Chunks, stats.Chunks)
	require.Equal(t, 32, stats.Dimension)
	require.Equal(t, 2, stats.Sources)
	require.Len(t, stats.Recent, 2)
}

func TestUploadValidation(t *testing.T) {
	svc, store := newDocumentService(t, nil, nil, 10)
	_, err := svc.Upload(context.Background(), nil)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Upload(context.Background(), []UploadFile{fileOf("x.exe", "abc")})
	require.ErrorIs(t, err, appErr.ErrUnsupported)
	_, err = svc.Upload(context.Background(), []UploadFile{fileOf("big.txt", "this is more than ten bytes")})
	require.ErrorIs(t, err, appErr.ErrTooLarge)
	require.Zero(t, store.Len())
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/extract"
	"github.com/xxxsen/concierge/internal/filestore"
	"github.com/xxxsen/concierge/internal/model"
	appErr "github.com/xxxsen/concierge/internal/pkg/errors"
	"github.com/xxxsen/concierge/internal/rag"
)

const recentUploads = 20

type UploadFile struct {
	Name string
	Size int64
	Body filestore.ReadSeekCloser
}

type UploadRecorder interface {
	Create(ctx context.Context, d *model.DocumentUpload) error
	ListRecent(ctx context.Context, limit uint) ([]model.DocumentUpload, error)
}

type UploadResult struct {
	Documents []model.DocumentUpload `json:"documents"`
	Chunks    int                    `json:"chunks"`
	EmbedTier string                 `json:"embed_tier,omitempty"`
}

type DocumentStats struct {
	rag.StoreStats
	Recent []model.DocumentUpload `json:"recent,omitempty"`
}

type DocumentService struct {
	ingestor *rag.Ingestor
	store    *rag.Store
	files    filestore.Store
	uploads  UploadRecorder
	maxSize  int64
	now      func() time.Time
}

// NewDocumentService builds the upload pipeline. files and uploads are
// optional; maxSize <= 0 disables the size check.
func NewDocumentService(ingestor *rag.Ingestor, store *rag.Store, files filestore.Store, uploads UploadRecorder, maxSize int64) *DocumentService {
	return &DocumentService{ingestor: ingestor, store: store, files: files, uploads: uploads, maxSize: maxSize, now: time.Now}
}

// Upload archives and ingests files as a single batch. Nothing is added to
// the index when any file fails to extract or embed.
func (s *DocumentService) Upload(ctx context.Context, files []UploadFile) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files: %w", appErr.ErrInvalid)
	}
	for _, f := range files {
		if !extract.Supported(f.Name) {
			return nil, fmt.Errorf("%s: %w", f.Name, appErr.ErrUnsupported)
		}
		if s.maxSize > 0 && f.Size > s.maxSize {
			return nil, fmt.Errorf("%s: %w", f.Name, appErr.ErrTooLarge)
		}
	}
	logger := logutil.GetLogger(ctx)

	records := make([]model.DocumentUpload, 0, len(files))
	docs := make([]rag.Document, 0, len(files))
	for _, f := range files {
		rec := model.DocumentUpload{ID: uuid.New().String(), Name: f.Name, Size: f.Size, Ctime: s.now().Unix()}
		if s.files != nil {
			key := rec.ID + strings.ToLower(filepath.Ext(f.Name))
			if err := s.files.Save(ctx, key, f.Body, f.Size); err != nil {
				logger.Warn("archive upload failed", zap.String("name", f.Name), zap.String("store", s.files.Type()), zap.Error(err))
			} else {
				rec.FileKey = key
			}
		}
		if _, err := f.Body.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind %s: %w", f.Name, err)
		}
		records = append(records, rec)
		docs = append(docs, rag.Document{Name: f.Name, Body: f.Body})
	}

	res, err := s.ingestor.Ingest(ctx, docs)
	if err != nil {
		return nil, err
	}
	out := &UploadResult{Chunks: res.Chunks, EmbedTier: string(res.Outcome.Tier)}
	for i := range records {
		records[i].Chunks = res.PerSource[records[i].Name]
		records[i].EmbedTier = string(res.Outcome.Tier)
		if s.uploads != nil {
			if err := s.uploads.Create(ctx, &records[i]); err != nil {
				logger.Warn("record upload failed", zap.String("name", records[i].Name), zap.Error(err))
			}
		}
	}
	out.Documents = records
	return out, nil
}

// IngestPath ingests one file from disk without archiving it. Used by the
// watch folder, which already owns the file.
func (s *DocumentService) IngestPath(ctx context.Context, name string, body io.Reader) (*rag.IngestResult, error) {
	if !extract.Supported(name) {
		return nil, fmt.Errorf("%s: %w", name, appErr.ErrUnsupported)
	}
	return s.ingestor.Ingest(ctx, []rag.Document{{Name: name, Body: body}})
}

func (s *DocumentService) Stats(ctx context.Context) (*DocumentStats, error) {
	stats := &DocumentStats{StoreStats: s.store.Stats()}
	if s.uploads == nil {
		return stats, nil
	}
	recent, err := s.uploads.ListRecent(ctx, recentUploads)
	if err != nil && !errors.Is(err, appErr.ErrNotFound) {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	stats.Recent = recent
	return stats, nil
}

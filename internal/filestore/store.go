package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xxxsen/concierge/internal/config"
)

// Store archives uploaded documents under a flat key.
type Store interface {
	Type() string
	Save(ctx context.Context, key string, r ReadSeekCloser, size int64) error
}

type ReadSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

// ErrDisabled is returned by New when no store type is configured.
var ErrDisabled = errors.New("file store disabled")

// New builds the store named by cfg.Type from its data block.
func New(cfg config.FileStoreConfig) (Store, error) {
	switch kind := strings.ToLower(strings.TrimSpace(cfg.Type)); kind {
	case "":
		return nil, ErrDisabled
	case "local":
		var c localConfig
		if err := decodeArgs(cfg.Data, &c); err != nil {
			return nil, err
		}
		st, err := newLocalStore(c)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "s3":
		var c s3Config
		if err := decodeArgs(cfg.Data, &c); err != nil {
			return nil, err
		}
		st, err := newS3Store(c)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
}

// decodeArgs round-trips the loosely typed data block into dst.
func decodeArgs(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("file store data is required")
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode file store data: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode file store data: %w", err)
	}
	return nil
}

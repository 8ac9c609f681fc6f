package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localStore struct {
	dir string
}

func newLocalStore(c localConfig) (*localStore, error) {
	if strings.TrimSpace(c.Dir) == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	return &localStore{dir: filepath.Clean(c.Dir)}, nil
}

func (s *localStore) Type() string {
	return "local"
}

// Save writes through a temp file so a partial upload never replaces an
// archived copy.
func (s *localStore) Save(ctx context.Context, key string, r ReadSeekCloser, size int64) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid file key %q", key)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, key))
}

package filestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	commons3 "github.com/xxxsen/common/s3"
)

type s3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
}

type s3Store struct {
	client *commons3.S3Client
	prefix string
}

func newS3Store(c s3Config) (*s3Store, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	client, err := commons3.New(
		commons3.WithEndpoint(c.Endpoint),
		commons3.WithSecret(c.SecretID, c.SecretKey),
		commons3.WithBucket(c.Bucket),
		commons3.WithRegion(c.Region),
		commons3.WithSSL(c.UseSSL),
	)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &s3Store{client: client, prefix: strings.Trim(c.Prefix, "/")}, nil
}

func (c *s3Config) validate() error {
	var missing []string
	for name, v := range map[string]string{"endpoint": c.Endpoint, "bucket": c.Bucket, "secret_id": c.SecretID, "secret_key": c.SecretKey} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("s3 store missing %s", strings.Join(missing, ", "))
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	return nil
}

func (s *s3Store) Type() string {
	return "s3"
}

func (s *s3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *s3Store) Save(ctx context.Context, key string, r ReadSeekCloser, size int64) error {
	if key == "" {
		return fmt.Errorf("file key is required")
	}
	objectKey := s.objectKey(key)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := s.client.Upload(ctx, objectKey, r, size); err != nil {
		return fmt.Errorf("upload %s: %w", objectKey, err)
	}
	return nil
}

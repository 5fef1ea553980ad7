package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aksidharth04/SetuAI-sub001/internal/clients/gcp"
	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	pkgerrors "github.com/aksidharth04/SetuAI-sub001/internal/pkg/errors"
)

// FileStore resolves a stored document path to its bytes. Files are
// immutable once written.
type FileStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, r io.Reader) error
}

// ---- local disk ----

type localFileStore struct {
	log     *logger.Logger
	baseDir string
}

func NewLocalFileStore(baseLog *logger.Logger, baseDir string) (FileStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", baseDir, err)
	}
	return &localFileStore{
		log:     baseLog.With("service", "LocalFileStore"),
		baseDir: baseDir,
	}, nil
}

func (s *localFileStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(s.baseDir, clean)
	if !strings.HasPrefix(full, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes store root: %s", path)
	}
	return full, nil
}

func (s *localFileStore) Read(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *localFileStore) Write(ctx context.Context, path string, r io.Reader) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	f, err := os.Create(full)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ---- GCS ----

type gcsFileStore struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewGCSFileStore(baseLog *logger.Logger, bucket gcp.BucketService) FileStore {
	return &gcsFileStore{
		log:    baseLog.With("service", "GCSFileStore"),
		bucket: bucket,
	}
}

func (s *gcsFileStore) Read(ctx context.Context, path string) ([]byte, error) {
	rc, err := s.bucket.DownloadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *gcsFileStore) Write(ctx context.Context, path string, r io.Reader) error {
	return s.bucket.UploadFile(ctx, path, r)
}

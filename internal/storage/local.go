package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LocalStore keeps receipt files on the local filesystem and hands out
// URLs that point back at the API server's upload/download routes.
type LocalStore struct {
	baseURL     string
	receiptsDir string
}

func NewLocalStore(baseURL, receiptsDir string) (*LocalStore, error) {
	if err := os.MkdirAll(receiptsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create receipts directory: %w", err)
	}
	return &LocalStore{baseURL: baseURL, receiptsDir: receiptsDir}, nil
}

func (s *LocalStore) GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, error) {
	// The token makes the URL single-purpose; the key tells the upload
	// route where to put the file.
	token := uuid.NewString()
	return fmt.Sprintf("%s/api/v1/receipts/upload/%s?key=%s", s.baseURL, token, key), nil
}

func (s *LocalStore) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	return fmt.Sprintf("%s/api/v1/receipts/%s?key=%s", s.baseURL, hashKey(key), key), nil
}

func (s *LocalStore) Exists(ctx context.Context, key string) (bool, int64, error) {
	info, err := os.Stat(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}

func (s *LocalStore) Save(key string, r io.Reader) error {
	fullPath := s.path(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	file, err := os.Open(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt: %w", err)
	}
	return file, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.receiptsDir, filepath.FromSlash(key))
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

package storage

import (
	"context"
	"io"
	"time"
)

// ReceiptStore is the backend for payment-receipt files. Buyers upload
// through a presigned URL; reviewers fetch the file while deciding an
// order. The local implementation stands in for S3-style object
// storage in development.
type ReceiptStore interface {
	// GenerateUploadURL returns a presigned URL the client PUTs the
	// receipt file to. The key identifies the stored object.
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, error)

	// GenerateDownloadURL returns a presigned URL for fetching a stored
	// receipt.
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// Exists reports whether the object is present and its size.
	Exists(ctx context.Context, key string) (bool, int64, error)

	// Delete removes a stored receipt.
	Delete(ctx context.Context, key string) error

	// Save persists an uploaded file. Only the local backend needs
	// this; a real object store receives the PUT directly.
	Save(key string, r io.Reader) error

	// Open streams a stored receipt.
	Open(key string) (io.ReadCloser, error)
}

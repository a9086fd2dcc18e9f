// Package blobstore keeps uploaded documents in an S3-compatible bucket.
// A memory-backed Store is provided for tests and local runs without MinIO.
package blobstore

import (
	"context"
	"io"
	"time"
)

// Metadata keys written alongside every object.
const (
	MetaOwnerID      = "owner-id"
	MetaOriginalName = "original-name"
)

// Object describes one stored blob. Metadata is only populated by Stat;
// listings carry key, size and timestamp.
type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Store is the subset of object storage the upload service needs.
// Stat returns common.ErrorNotFound for a missing key.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, meta map[string]string) error
	List(ctx context.Context, prefix string) ([]Object, error)
	Stat(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

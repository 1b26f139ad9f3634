// Package storage puts objects into one bucket and builds the public URL
// clients use to fetch them.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

var (
	// ErrBucketRequired is returned when a driver has no bucket configured.
	ErrBucketRequired = errors.New("storage: bucket is required")
	// ErrKeyRequired is returned for an empty object key.
	ErrKeyRequired = errors.New("storage: key is required")
)

// Storage stores objects in a single bucket.
type Storage interface {
	io.Closer

	// Put uploads r under key and returns where it can be read.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Object, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of key.
	URL(key string) string
}

// PutOptions configures an upload.
type PutOptions struct {
	// Size is the content length; required by some drivers for streaming.
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// Object describes a stored object.
type Object struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
	URL         string
}

// joinURL appends an escaped key to base.
func joinURL(base, key string) string {
	parts := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}

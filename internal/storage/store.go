// Package storage provides the durable key-value blob slots the console persists
// its session token and staged drafts in.
package storage

import (
	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// BlobStore is a namespaced, durable key-value store of opaque blobs.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
	Delete(key string) error
}

// Namespaced prefixes every key with ns so that several consoles can share a backend.
func Namespaced(ns string, key string) string {
	if ns == "" {
		return key
	}
	return ns + "." + key
}

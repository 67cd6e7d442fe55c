// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get for missing keys, regardless of
// backend.
var ErrNotFound = errors.New("store: key not found")

// KV is the persistence surface the engine needs: a flat key-value
// space with prefix scans.
type KV interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error

	// ForEachPrefix visits every key with the given prefix. Returning
	// an error from fn stops the scan and propagates the error.
	ForEachPrefix(prefix []byte, fn func(key, value []byte) error) error

	Close() error
}

// New opens a KV backend by name: "memory" or "badger". The path is
// only used by disk-backed stores.
func New(backend, path string) (KV, error) {
	switch backend {
	case "memory":
		return NewMemKV(), nil
	case "badger", "":
		return NewBadgerKV(path)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
}

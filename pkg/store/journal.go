// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"encoding/json"
)

// Journal is an append-only JSON record log under a key prefix,
// used for trade receipts.
type Journal struct {
	kv     KV
	prefix []byte
}

// NewJournal creates a journal over kv with the given key prefix.
func NewJournal(kv KV, prefix string) *Journal {
	return &Journal{kv: kv, prefix: []byte(prefix)}
}

// Append stores v as JSON under the journal's prefix and the given id.
func (j *Journal) Append(id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return j.kv.Put(j.key(id), data)
}

// Each visits every record in key order, unmarshalling into the value
// produced by newV before handing it to fn.
func (j *Journal) Each(newV func() any, fn func(id string, v any) error) error {
	return j.kv.ForEachPrefix(j.prefix, func(key, value []byte) error {
		v := newV()
		if err := json.Unmarshal(value, v); err != nil {
			return err
		}
		return fn(string(key[len(j.prefix):]), v)
	})
}

func (j *Journal) key(id string) []byte {
	k := make([]byte, 0, len(j.prefix)+len(id))
	k = append(k, j.prefix...)
	k = append(k, id...)
	return k
}

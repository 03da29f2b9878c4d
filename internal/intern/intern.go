// Package intern implements Saurus's content-addressed string table.
//
// Two strings with equal byte content share one heap object; value
// equality for strings therefore reduces to pointer equality once
// interned, per the core data model.
package intern

import (
	"sync"

	"saurus/internal/gc"
)

// MurmurHash2 constants, seed 0. Reproduced exactly from the source
// VM's string table so that hashes computed here agree with any
// externally recorded hash (e.g. in a ported test fixture).
const (
	seed = 0
	m    = 0x5bd1e995
	r    = 24
)

// Hash2 computes MurmurHash2 over b with seed 0, matching the
// reference implementation byte for byte.
func Hash2(b []byte) uint32 {
	h := uint32(seed) ^ uint32(len(b))

	n := len(b) / 4
	for i := 0; i < n; i++ {
		k := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		k *= m
		k ^= k >> r
		k *= m
		h *= m
		h ^= k
	}

	tail := b[n*4:]
	switch len(tail) {
	case 3:
		h ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		h ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		h ^= uint32(tail[0])
		h *= m
	}

	h ^= h >> 13
	h *= m
	h ^= h >> 15

	return h
}

// String is the interned heap object: bytes, cached hash, and length.
// The length stored here is the *content* length, not including any
// on-disk terminator byte (that accounting is the bytecode loader's
// concern, per the wire format's NUL-inclusive size field).
type String struct {
	Bytes []byte
	hash  uint32
}

// Hash returns the cached hash; value.Hash reads it for String values.
func (s *String) Hash() uint32 { return s.hash }

// GCChildren implements gc.Object; interned strings carry no further
// gc-bearing fields.
func (s *String) GCChildren() []gc.Object { return nil }

// Len returns the content length in bytes.
func (s *String) Len() int { return len(s.Bytes) }

func (s *String) SaurusString() string { return string(s.Bytes) }

// Table is a process-wide (or, for an embedded VM, state-wide)
// content-addressed string table, keyed by hash bucket with a linear
// probe among same-hash entries for the rare collision case.
type Table struct {
	mu      sync.Mutex
	buckets map[uint32][]*String
	count   int
}

// NewTable constructs an empty string table.
func NewTable() *Table {
	return &Table{buckets: make(map[uint32][]*String)}
}

// Intern returns the canonical *String for b, allocating one on first
// sight and returning the existing object on every subsequent call
// with equal content.
func (t *Table) Intern(b []byte) *String {
	h := Hash2(b)

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.buckets[h] {
		if string(s.Bytes) == string(b) {
			return s
		}
	}

	cp := make([]byte, len(b))
	copy(cp, b)
	s := &String{Bytes: cp, hash: h}
	t.buckets[h] = append(t.buckets[h], s)
	t.count++
	return s
}

// InternString is a convenience wrapper over Intern for Go strings.
func (t *Table) InternString(s string) *String {
	return t.Intern([]byte(s))
}

// Count returns the number of distinct interned strings. The GC's
// root set walk enumerates the table through Each, not Count.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Each calls fn once per interned string; used by the GC to enumerate
// the string-table root.
func (t *Table) Each(fn func(*String)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, bucket := range t.buckets {
		for _, s := range bucket {
			fn(s)
		}
	}
}

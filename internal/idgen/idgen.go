// Package idgen produces short, time-ordered string identifiers for
// entities whose primary key is textual.
package idgen

import (
	"encoding/base32"
	"encoding/binary"
	"strings"
	"time"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New returns an opaque short id derived from the current wall clock.
//
// The microsecond timestamp is serialized big-endian with leading zero
// bytes stripped, base32-encoded without padding and lowercased. Ids
// sort lexicographically in roughly chronological order and are 10-13
// characters long for contemporary timestamps.
//
// This is not a cryptographic identifier. Two calls within the same
// microsecond on the same host yield the same id; callers persisting
// these ids must retry on unique-constraint violations.
func New() string {
	return FromTime(time.Now())
}

// FromTime returns the id for an explicit instant. Primarily useful in
// tests that need deterministic ids.
func FromTime(t time.Time) string {
	micros := uint64(t.UnixMicro())

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], micros)

	start := 0
	for start < len(buf)-1 && buf[start] == 0 {
		start++
	}

	return strings.ToLower(encoding.EncodeToString(buf[start:]))
}

package registry

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hasher maps a key onto a 64-bit hash. Bucket selection reduces it modulo
// the table capacity.
type Hasher[K comparable] func(K) uint64

// Integer lists the key kinds IntHasher accepts.
type Integer interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64
}

// IntHasher hashes integer keys through xxhash over their little-endian bytes.
func IntHasher[K Integer]() Hasher[K] {
	return func(k K) uint64 {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
		return xxhash.Sum64(buf[:])
	}
}

// StringHasher hashes string keys with xxhash.
func StringHasher() Hasher[string] {
	return xxhash.Sum64String
}

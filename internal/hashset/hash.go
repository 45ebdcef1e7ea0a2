// Package hashset centralises the module's only manual hashing routine, in
// the same "one audited file" spirit as internal/unsafehelpers.
//
// © 2025 vkforge authors. MIT License.
package hashset

import "unsafe"

// murmur2 is a 64-bit Murmur2-style mixing hash over raw key bytes, matching
// the source's default hash_set_default_hasher.
func murmur2(data []byte, seed uint64) uint64 {
	const m = 0xc6a4a7935bd1e995
	const r = 47

	h := seed ^ (uint64(len(data)) * m)

	for len(data) >= 8 {
		k := *(*uint64)(unsafe.Pointer(&data[0]))
		k *= m
		k ^= k >> r
		k *= m

		h ^= k
		h *= m

		data = data[8:]
	}

	switch len(data) {
	case 7:
		h ^= uint64(data[6]) << 48
		fallthrough
	case 6:
		h ^= uint64(data[5]) << 40
		fallthrough
	case 5:
		h ^= uint64(data[4]) << 32
		fallthrough
	case 4:
		h ^= uint64(data[3]) << 24
		fallthrough
	case 3:
		h ^= uint64(data[2]) << 16
		fallthrough
	case 2:
		h ^= uint64(data[1]) << 8
		fallthrough
	case 1:
		h ^= uint64(data[0])
		h *= m
	}

	h ^= h >> r
	h *= m
	h ^= h >> r
	return h
}

// bytesOf returns a byte view over an arbitrary comparable scalar/struct key.
func bytesOf[K comparable](key K) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&key)), unsafe.Sizeof(key))
}

// HashFunc computes the 64-bit hash for a key. Reserved values 0 and
// math.MaxUint64 are remapped by Set so they never collide with the
// sentinel "empty"/"deleted" markers.
type HashFunc[K comparable] func(key K) uint64

// DefaultHasher returns a murmur2-based hasher seeded with a fixed constant,
// suitable for any comparable fixed-layout key (integers, pointers, small
// structs without internal pointers/slices).
func DefaultHasher[K comparable]() HashFunc[K] {
	return func(key K) uint64 {
		return murmur2(bytesOf(key), 0x9ae16a3b2f90404f)
	}
}

// StringHasher builds a hasher for string keys, accepting a function that
// extracts the string from K (identity when K is already string).
func StringHasher[K comparable](extract func(K) string) HashFunc[K] {
	return func(key K) uint64 {
		return murmur2([]byte(extract(key)), 0x9ae16a3b2f90404f)
	}
}

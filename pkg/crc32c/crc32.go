// Package crc32c provides the chained IEEE 802.3 CRC32 used for file
// checksums (backup sidecars) and for hashing path/key strings into the
// backup-blacklist and notification-registry sets.
//
// The checksum algorithm itself is exactly the one stdlib hash/crc32
// implements; there is no ecosystem replacement worth pulling in for a
// well-known, already-idiomatic standard-library primitive, so this
// package is a thin, chain-friendly wrapper rather than a reimplementation.
package crc32c

import "hash/crc32"

// Seed is the conventional starting value for a fresh checksum.
const Seed uint32 = 0

// Checksum computes the IEEE CRC32 of buf, starting from seed, so callers
// can chain checksums across successive buffers of a stream.
func Checksum(seed uint32, buf []byte) uint32 {
	return crc32.Update(seed, crc32.IEEETable, buf)
}

// HexString renders a checksum as the lower-case hex text the checksum
// sidecar files store on disk.
func HexString(sum uint32) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = hexDigits[sum&0xF]
		sum >>= 4
	}
	return string(b)
}

// OfString hashes s (a canonical path or internal key) into the u32 space
// the blacklist and notification sets use.
func OfString(s string) uint32 {
	return Checksum(Seed, []byte(s))
}

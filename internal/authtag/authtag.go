// Package authtag signs and verifies the 8-byte authentication tag
// carried at the end of every outbound datagram.
//
// The scheme is a deliberate "windowed truncation" of HMAC-SHA256, not a
// plain first-8-bytes truncation: the tag window start is itself derived
// from the HMAC output. This is a wire-compatibility contract with the
// aggregator, not a security design choice of our own, and must not be
// "improved" to a first-8-bytes truncation.
package authtag

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
)

// KeyLen is the size of the expanded HMAC key (one SHA-512 digest).
const KeyLen = 64

// TagLen is the size of the authentication tag carried on the wire.
const TagLen = 8

// hmacSize is the size of an untruncated HMAC-SHA256 digest.
const hmacSize = sha256.Size

// windowMod is the number of candidate start offsets for the tag window:
// the digest is 32 bytes and the tag is 8, leaving 24 possible starts.
const windowMod = hmacSize - TagLen

// Signer holds the expanded HMAC key derived from a pre-shared secret.
// A Signer is safe for concurrent use; in this codebase it is only ever
// driven from the scheduler goroutine.
type Signer struct {
	key [KeyLen]byte
}

// New expands psk (of arbitrary length, up to the configured maximum)
// into a fixed 64-byte HMAC-SHA256 key via SHA-512, matching
// authtag_init() in the original C source.
func New(psk []byte) *Signer {
	s := &Signer{}
	s.key = sha512.Sum512(psk)
	return s
}

// Sign computes the authentication tag for msg: the bytes that will
// precede the tag on the wire (full header and body).
func (s *Signer) Sign(msg []byte) [TagLen]byte {
	h := hmacSum(s.key[:], msg)

	idx := int(h[22]) % windowMod

	var tag [TagLen]byte
	copy(tag[:], h[idx:idx+TagLen])
	return tag
}

// Verify recomputes the HMAC over msg and compares it against tag using
// the same windowed-truncation rule used to produce it.
func (s *Signer) Verify(msg []byte, tag [TagLen]byte) bool {
	want := s.Sign(msg)
	return hmac.Equal(want[:], tag[:])
}

func hmacSum(key, data []byte) [hmacSize]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	var out [hmacSize]byte
	copy(out[:], mac.Sum(nil))
	return out
}

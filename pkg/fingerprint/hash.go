// Package fingerprint provides the SHA-256 hashing primitive that underlies
// every imprint: hashing raw bytes, strings, and streams, plus an
// incremental digest for composing hashes out of other hashes.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// Size is the length in bytes of a Hash (SHA-256 digest).
const Size = sha256.Size

// chunkSize bounds the buffer used when streaming file content through the
// hasher so memory use stays O(1) regardless of file size.
const chunkSize = 64 * 1024

// Hash is an opaque 32-byte SHA-256 digest.
type Hash [Size]byte

// Empty is the hash of the empty byte string, used as the content and
// children fingerprint of directories with no entries.
var Empty = Hash(sha256.Sum256(nil))

// String returns the lowercase hex checksum representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero value (distinct from Empty,
// which is the hash of zero bytes).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns the raw 32 bytes of the digest.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Miniprint returns the first 8 hex characters of the hash.
func (h Hash) Miniprint() string {
	return h.String()[:8]
}

// ParseHash parses a lowercase (or uppercase) 64-character hex checksum
// string into a Hash.
func ParseHash(checksum string) (Hash, error) {
	var h Hash
	if len(checksum) != Size*2 {
		return h, fmt.Errorf("fingerprint: checksum must be %d hex characters, got %d", Size*2, len(checksum))
	}
	decoded, err := hex.DecodeString(checksum)
	if err != nil {
		return h, fmt.Errorf("fingerprint: invalid checksum %q: %w", checksum, err)
	}
	copy(h[:], decoded)
	return h, nil
}

// Of computes the SHA-256 hash of data.
func Of(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// OfString computes the SHA-256 hash of the UTF-8 bytes of s.
func OfString(s string) Hash {
	return Of([]byte(s))
}

// OfStream computes the SHA-256 hash of everything read from r, reading in
// fixed-size chunks so memory use is independent of stream length.
func OfStream(r io.Reader) (Hash, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return Hash{}, fmt.Errorf("fingerprint: hash stream: %w", err)
	}
	var out Hash
	h.Sum(out[:0])
	return out, nil
}

// Digest is an incremental hash builder used to compose a fingerprint out
// of an ordered sequence of bytes and/or sub-hashes, e.g. filename hash,
// mtime bytes, content fingerprint, children fingerprint.
type Digest struct {
	h hash.Hash
}

// NewDigest returns an empty incremental digest.
func NewDigest() *Digest {
	return &Digest{h: sha256.New()}
}

// Update feeds raw bytes into the digest.
func (d *Digest) Update(data []byte) *Digest {
	d.h.Write(data)
	return d
}

// UpdateHash feeds the raw bytes of a previously computed Hash into the
// digest, letting callers compose fingerprints out of other fingerprints.
func (d *Digest) UpdateHash(h Hash) *Digest {
	d.h.Write(h[:])
	return d
}

// Finalize returns the finalized hash. The Digest must not be reused
// afterward.
func (d *Digest) Finalize() Hash {
	var out Hash
	d.h.Sum(out[:0])
	return out
}

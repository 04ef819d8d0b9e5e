// Package sha256 digests raw documents for archive object paths.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements insights.Hasher with SHA-256 hex digests.
type Hasher struct{}

// New returns a Hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash digests a fetched document body. The digest is stable for identical
// bodies, so re-archiving the same page produces the same object path.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

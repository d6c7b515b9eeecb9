package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeChecksum computes the SHA-256 checksum of the data section.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ValidateChecksum compares computed checksum against stored checksum.
// The returned error wraps ErrChecksumMismatch.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return fmt.Errorf("%w: stored %s, computed %s", ErrChecksumMismatch,
			hex.EncodeToString(stored[:8]), hex.EncodeToString(computed[:8]))
	}
	return nil
}

package helpers

import (
	"crypto/sha256"
	"encoding/hex"
)

// HexOfHash returns the hex-encoded SHA-256 of the concatenated parts.
func HexOfHash(parts ...[]byte) string {
	hash := sha256.New()
	for _, p := range parts {
		hash.Write(p)
	}

	return hex.EncodeToString(hash.Sum(nil))
}

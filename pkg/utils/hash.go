package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// CalculateStringSHA256 computes the SHA-256 hash of a string.
func CalculateStringSHA256(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// ShortHash returns the first n hex characters of the content hash, for ETags and cache keys.
func ShortHash(content string, n int) string {
	full := CalculateStringSHA256(content)
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}

// Package checksum fingerprints document content. The index uses it to skip
// unchanged chapter files and the session uses it to track unsaved edits.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String is Sum for text already held as a string.
func String(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Matches reports whether content still has the digest sum.
func Matches(content, sum string) bool {
	return sum != "" && String(content) == sum
}

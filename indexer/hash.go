package indexer

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex-encoded SHA-256 digest of text. Identical
// content always produces the same fingerprint, and any single-character
// change produces a different one; the sync loop compares fingerprints to
// decide whether a document needs re-indexing.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex SHA-256 digest of a payload's content. It is
// the dedup key for the ingest ledger, so it must be collision-resistant,
// not just a checksum.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

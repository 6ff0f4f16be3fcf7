// Package fingerprint computes stable content hashes used for duplicate
// detection and version change detection.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Body returns the fingerprint of a content body. Two byte-identical bodies
// always produce the same fingerprint.
func Body(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// Snapshot returns the fingerprint of a full editable snapshot. Used to detect
// whether consecutive versions actually differ.
func Snapshot(title, body, metadata string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(body))
	h.Write([]byte{0})
	h.Write([]byte(metadata))
	return hex.EncodeToString(h.Sum(nil))
}

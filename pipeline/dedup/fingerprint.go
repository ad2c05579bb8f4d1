// Package dedup computes stable fingerprints over case-identifying fields for
// duplicate suppression. Only the single most-recently-accepted fingerprint is
// retained by callers, so a case identical to one accepted two submissions ago
// is not detected; this blocks accidental resubmission, not global duplicates.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"

	contractx "github.com/supportops/caseflow/pipeline/contract"
)

// Fingerprint returns a deterministic digest over (case number, customer
// name, issue description). Other field differences do not change it.
func Fingerprint(fields contractx.CaseFields) string {
	h := sha256.New()
	h.Write([]byte(fields.CaseNumber))
	h.Write([]byte{0})
	h.Write([]byte(fields.CustomerName))
	h.Write([]byte{0})
	h.Write([]byte(fields.IssueDescription))
	return hex.EncodeToString(h.Sum(nil))
}

// IsDuplicate reports whether fingerprint matches the last accepted one.
func IsDuplicate(fingerprint, lastSeen string) bool {
	return fingerprint != "" && fingerprint == lastSeen
}

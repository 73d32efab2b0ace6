package lead

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// hashBodyPrefix bounds the body contribution to the identity so that
// appended boilerplate does not change the key.
const hashBodyPrefix = 200

// IdentityHash returns the stable dedup key for a review. Two captures
// of the same review from the same page hash identically even when the
// site re-renders timestamps or ordering around it.
func IdentityHash(r Review) string {
	parts := []string{
		r.ReviewerName,
		r.CompanyName,
		TruncateRunes(r.Body, hashBodyPrefix),
		r.SourceURL,
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Finalize stamps the derived fields of a freshly extracted review:
// score, identity hash, and default status.
func Finalize(r *Review) {
	r.Score = Score(*r)
	r.IdentityHash = IdentityHash(*r)
	if r.Status == "" {
		r.Status = StatusNew
	}
}

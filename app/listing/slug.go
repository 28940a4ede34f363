package listing

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ShortCodeLength is the fixed length of short-link codes.
const ShortCodeLength = 8

// Slugify converts a display string into a URL-safe slug: lowercase,
// runs of non-alphanumeric characters collapsed to a single hyphen,
// leading and trailing hyphens trimmed. Idempotent.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen

	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// ShortCode derives a deterministic fixed-length code from a slug for
// short-link redirection.
func ShortCode(slug string) string {
	hash := sha256.Sum256([]byte(slug))
	return hex.EncodeToString(hash[:])[:ShortCodeLength]
}

// DeriveSlug picks the listing slug: the explicit slug when present and
// non-blank, else the slugified title, else an id-based fallback.
func DeriveSlug(explicit, title, id string) string {
	if slug := Slugify(explicit); slug != "" {
		return slug
	}
	if slug := Slugify(title); slug != "" {
		return slug
	}
	return "place-" + id
}

// Package fingerprint derives the stable identity used to deduplicate postings
// across repeated collector runs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"jobhunt-ingest/internal/domain"
)

// Key returns the string that identifies a posting: the source-native id when
// present, then the URL, then title and location. The title is length-prefixed
// so no title/location pair can be confused with another.
func Key(p domain.Posting) string {
	if id := strings.TrimSpace(p.ExternalID); id != "" {
		return id
	}
	if u := strings.TrimSpace(p.URL); u != "" {
		return u
	}
	title := strings.TrimSpace(p.Title)
	return strconv.Itoa(len(title)) + ":" + title + "::" + strings.TrimSpace(p.Location)
}

// Of returns the hex SHA-256 of Key(p).
func Of(p domain.Posting) string {
	return HashString(Key(p))
}

func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

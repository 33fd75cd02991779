package types

import (
	"encoding/json"

	"jobhunt-ingest/internal/domain"
)

// MapAll maps every raw entry independently. A bad entry becomes a
// *MalformedError in skipped and never stops the rest.
func MapAll(m Mapper, raws []json.RawMessage, fallbackCompany string) (postings []domain.Posting, skipped []error) {
	postings = make([]domain.Posting, 0, len(raws))
	for i, raw := range raws {
		p, err := m.MapRaw(raw, fallbackCompany)
		if err != nil {
			skipped = append(skipped, &MalformedError{Index: i, Err: err})
			continue
		}
		postings = append(postings, p)
	}
	return postings, skipped
}

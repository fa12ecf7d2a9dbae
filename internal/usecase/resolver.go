package usecase

import "github.com/vadimbarashkov/shortlinks/internal/entity"

// Outcome is the result of Resolve: either Found or NotFound.
type Outcome interface {
	outcome()
}

// Found carries the destination and the full record sequence with the
// matched record's click fields updated in place.
type Found struct {
	Destination string
	Index       int
	Records     []entity.URLRecord
}

// NotFound means no record carries the requested short code.
type NotFound struct{}

func (Found) outcome() {}
func (NotFound) outcome() {}

// Resolve looks up the first record with an exactly matching short code,
// appends click to its log and increments its counter. The input sequence is
// never modified. Expiry is not consulted.
func Resolve(records []entity.URLRecord, shortCode string, click entity.ClickEvent) Outcome {
	for i := range records {
		if records[i].ShortCode != shortCode {
			continue
		}

		updated := entity.CloneRecords(records)
		updated[i].Clicks++
		updated[i].ClickData = append(updated[i].ClickData, click)

		return Found{
			Destination: updated[i].LongURL,
			Index:       i,
			Records:     updated,
		}
	}

	return NotFound{}
}

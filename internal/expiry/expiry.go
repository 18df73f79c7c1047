// Package expiry classifies documents by how close they are to expiring.
package expiry

import (
	"math"
	"time"

	"doctrack/internal/model"
)

// Status is the expiry bucket of a document.
type Status string

const (
	Expired      Status = "expired"
	ExpiringSoon Status = "expiring_soon"
	Valid        Status = "valid"
)

// SoonThresholdDays is the inclusive upper bound of the expiring-soon window.
const SoonThresholdDays = 30

// ParseStatus maps a filter value to a Status. "expiring" is accepted as an alias
// of "expiring_soon".
func ParseStatus(s string) (Status, bool) {
	switch s {
	case string(Expired):
		return Expired, true
	case string(ExpiringSoon), "expiring":
		return ExpiringSoon, true
	case string(Valid):
		return Valid, true
	}
	return "", false
}

// DaysUntil returns ceil((expiry - now) / 24h). The expiry date is taken at
// midnight UTC, so a document expiring today yields 0 for any time of day.
func DaysUntil(expiry model.Date, now time.Time) int {
	days := expiry.Time.Sub(now).Hours() / 24
	n := int(math.Ceil(days))
	if n == 0 {
		return 0 // normalize -0
	}
	return n
}

// Classify buckets an expiry date relative to now.
func Classify(expiry model.Date, now time.Time) Status {
	days := DaysUntil(expiry, now)
	switch {
	case days < 0:
		return Expired
	case days <= SoonThresholdDays:
		return ExpiringSoon
	default:
		return Valid
	}
}

// Stats summarizes a set of documents by status.
type Stats struct {
	Total        int `json:"total"`
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiring_soon"`
	Valid        int `json:"valid"`
}

// Summarize counts documents per status.
func Summarize(docs []model.Document, now time.Time) Stats {
	s := Stats{Total: len(docs)}
	for _, d := range docs {
		switch Classify(d.ExpiryDate, now) {
		case Expired:
			s.Expired++
		case ExpiringSoon:
			s.ExpiringSoon++
		default:
			s.Valid++
		}
	}
	return s
}

// Filter keeps the documents whose status equals want.
func Filter(docs []model.Document, want Status, now time.Time) []model.Document {
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if Classify(d.ExpiryDate, now) == want {
			out = append(out, d)
		}
	}
	return out
}

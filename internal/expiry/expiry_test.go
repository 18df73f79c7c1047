package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"doctrack/internal/model"
)

var today = model.NewDate(2026, time.October, 16)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   Status
	}{
		{name: "expired five days ago", offset: -5, want: Expired},
		{name: "expired yesterday", offset: -1, want: Expired},
		{name: "expires today", offset: 0, want: ExpiringSoon},
		{name: "expires tomorrow", offset: 1, want: ExpiringSoon},
		{name: "upper bound of soon window", offset: 30, want: ExpiringSoon},
		{name: "just outside soon window", offset: 31, want: Valid},
		{name: "far future", offset: 400, want: Valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(today.AddDays(tt.offset), today.Time))
		})
	}
}

func TestClassify_AllOffsets(t *testing.T) {
	for offset := -60; offset <= 60; offset++ {
		got := Classify(today.AddDays(offset), today.Time)
		switch {
		case offset < 0:
			assert.Equal(t, Expired, got, "offset %d", offset)
		case offset <= 30:
			assert.Equal(t, ExpiringSoon, got, "offset %d", offset)
		default:
			assert.Equal(t, Valid, got, "offset %d", offset)
		}
	}
}

func TestClassify_TimeOfDay(t *testing.T) {
	afternoon := today.Time.Add(15 * time.Hour)

	assert.Equal(t, 0, DaysUntil(today, afternoon))
	assert.Equal(t, ExpiringSoon, Classify(today, afternoon))
	assert.Equal(t, Expired, Classify(today.AddDays(-1), afternoon))
	assert.Equal(t, 30, DaysUntil(today.AddDays(30), afternoon))
	assert.Equal(t, Valid, Classify(today.AddDays(31), afternoon))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("expiring")
	assert.True(t, ok)
	assert.Equal(t, ExpiringSoon, s)

	s, ok = ParseStatus("valid")
	assert.True(t, ok)
	assert.Equal(t, Valid, s)

	_, ok = ParseStatus("all")
	assert.False(t, ok)
}

func TestSummarizeAndFilter(t *testing.T) {
	docs := []model.Document{
		{ID: "a", ExpiryDate: today.AddDays(-5)},
		{ID: "b", ExpiryDate: today.AddDays(10)},
		{ID: "c", ExpiryDate: today.AddDays(20)},
		{ID: "d", ExpiryDate: today.AddDays(90)},
	}

	assert.Equal(t, Stats{Total: 4, Expired: 1, ExpiringSoon: 2, Valid: 1}, Summarize(docs, today.Time))

	soon := Filter(docs, ExpiringSoon, today.Time)
	assert.Len(t, soon, 2)
	assert.Equal(t, "b", soon[0].ID)
	assert.Equal(t, "c", soon[1].ID)

	assert.Equal(t, Stats{}, Summarize(nil, today.Time))
}

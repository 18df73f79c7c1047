// Package reminder derives the reminder dates of a document from its expiry date
// and renewal period.
package reminder

import "doctrack/internal/model"

// Stage is one derived reminder date. Custom marks the user-supplied extra date.
type Stage struct {
	Date   model.Date `json:"date"`
	Custom bool       `json:"custom"`
}

// Offsets returns the days-before-expiry at which reminders fire for the given
// renewal period, largest offset first.
func Offsets(renewalPeriodDays int) []int {
	switch {
	case renewalPeriodDays >= 90:
		return []int{60, 30, 7}
	case renewalPeriodDays >= 30:
		return []int{30, 14, 3}
	case renewalPeriodDays >= 14:
		return []int{14, 7, 2}
	default:
		return []int{7, 3, 1}
	}
}

// Schedule returns the reminder dates for a document in ascending order, followed
// by the custom date when one is given. Past dates are kept, and the custom date is
// not deduplicated against the computed stages.
func Schedule(expiry model.Date, renewalPeriodDays int, custom *model.Date) []Stage {
	offsets := Offsets(renewalPeriodDays)
	stages := make([]Stage, 0, len(offsets)+1)
	for _, d := range offsets {
		stages = append(stages, Stage{Date: expiry.AddDays(-d)})
	}
	if custom != nil && !custom.IsZero() {
		stages = append(stages, Stage{Date: *custom, Custom: true})
	}
	return stages
}

// Reminders turns a schedule into unsaved reminder rows for a document.
func Reminders(doc model.Document, stages []Stage) []model.Reminder {
	out := make([]model.Reminder, 0, len(stages))
	for _, s := range stages {
		out = append(out, model.Reminder{
			DocumentID:   doc.ID,
			UserID:       doc.UserID,
			ReminderDate: s.Date,
			IsCustom:     s.Custom,
		})
	}
	return out
}

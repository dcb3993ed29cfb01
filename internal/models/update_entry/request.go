package models

import "io.winapps.worklog/internal/journal"

// UpdateEntryRequest replaces every editable field of an existing entry.
type UpdateEntryRequest struct {
	EntryID string `json:"entryId" binding:"required"`
	Date    string `json:"date"`
	Type    string `json:"type"`
	Privacy string `json:"privacy"`
	Text    string `json:"text"`
	Link    string `json:"link"`
}

func (r UpdateEntryRequest) Submission() journal.Submission {
	return journal.Submission{ID: r.EntryID, Date: r.Date, Type: r.Type, Privacy: r.Privacy, Text: r.Text, Link: r.Link}
}

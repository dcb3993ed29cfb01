package models

import "io.winapps.worklog/internal/journal"

type CreateEntryRequest struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Type    string `json:"type"`
	Privacy string `json:"privacy"`
	Text    string `json:"text"`
	Link    string `json:"link"`
}

func (r CreateEntryRequest) Submission() journal.Submission {
	return journal.Submission{ID: r.ID, Date: r.Date, Type: r.Type, Privacy: r.Privacy, Text: r.Text, Link: r.Link}
}

package models

import "io.winapps.worklog/internal/journal"

type ListPendingResponse struct {
	Saving  bool            `json:"saving"`
	Entries []journal.Entry `json:"entries"`
}

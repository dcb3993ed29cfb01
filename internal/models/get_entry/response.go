package models

import "io.winapps.worklog/internal/journal"

type GetEntryResponse struct {
	journal.Entry
}

package models

import "io.winapps.worklog/internal/journal"

type CreateEntryResponse struct {
	journal.Entry
}

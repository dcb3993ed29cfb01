package models

import "io.winapps.worklog/internal/journal"

type UpdateEntryResponse struct {
	journal.Entry
}

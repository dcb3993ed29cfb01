package models

import (
	"time"

	"io.winapps.worklog/internal/journal"
)

type Owner struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	First       string    `json:"first"`
	Last        string    `json:"last"`
	CreatedAt   time.Time `json:"createdAt"`
}

type GetJournalResponse struct {
	Owner           Owner          `json:"owner"`
	OwnerIsSignedIn bool           `json:"ownerIsSignedIn"`
	Saving          bool           `json:"saving"`
	Weeks           []journal.Week `json:"weeks"`
}

package models

type DeleteEntryResponse struct {
	IsDeleted bool   `json:"isDeleted"`
	EntryID   string `json:"entryId"`
}

package models

import "time"

type SearchUserResult struct {
	Username  string    `json:"username"`
	First     string    `json:"first"`
	Last      string    `json:"last"`
	CreatedAt time.Time `json:"createdAt"`
	IsSelf    bool      `json:"isSelf"`
}

type SearchUsersResponse struct {
	Results []SearchUserResult `json:"results"`
}

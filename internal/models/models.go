package models

import "fmt"

// Playlist represents a playlist in the user's library.
type Playlist struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// Summary renders a one-line description used by list views.
func (p Playlist) Summary() string {
	desc := fmt.Sprintf("%d tracks", p.TrackCount)
	if p.Owner != "" {
		desc = fmt.Sprintf("%s • by %s", desc, p.Owner)
	}
	if p.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, p.Description)
	}
	return desc
}

// User represents the authenticated account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
}

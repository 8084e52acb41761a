package models

import "time"

// Selection is the card a dashboard session is currently looking at.
type Selection struct {
	SessionID  string    `json:"session_id"`
	CardID     string    `json:"card_id"`
	SelectedAt time.Time `json:"selected_at"`
}

package models

import (
	"time"
)

// PriceSnapshot stores the stats of one price lookup for historical tracking
type PriceSnapshot struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CardID        string    `json:"card_id" gorm:"not null;index:idx_card_captured"`
	Source        string    `json:"source" gorm:"not null"`
	Lowest        float64   `json:"lowest"`
	Highest       float64   `json:"highest"`
	Average       float64   `json:"average"`
	Median        float64   `json:"median"`
	TotalListings int       `json:"total_listings"`
	OnSaleCount   int       `json:"on_sale_count"`
	CapturedAt    time.Time `json:"captured_at" gorm:"not null;index:idx_card_captured"`
	CreatedAt     time.Time `json:"created_at"`
}

// PriceHistoryResponse is the API response for a card's price history
type PriceHistoryResponse struct {
	CardID    string          `json:"card_id"`
	Snapshots []PriceSnapshot `json:"snapshots"`
}

package domain

import (
	"encoding/json"
	"time"
)

// Listing is locally cached metadata for one platform item. The platform
// remains the source of truth; this record exists so the landlord surface
// can render titles and addresses without a network round trip.
type Listing struct {
	ID            int64           `json:"id"`
	ItemID        int64           `json:"item_id"`
	Title         string          `json:"title"`
	Address       string          `json:"address"`
	Price         float64         `json:"price"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	LastFetchedAt *time.Time      `json:"last_fetched_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

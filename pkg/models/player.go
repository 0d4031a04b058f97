package models

import "time"

// Player is the subset of a scouted player the scrapers and sheet sync touch
type Player struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Club            *string   `db:"club" json:"club,omitempty"`
	Position        *string   `db:"position" json:"position,omitempty"`
	TransfermarktID *string   `db:"transfermarkt_id" json:"transfermarkt_id,omitempty"`
	PhotoURL        *string   `db:"photo_url" json:"photo_url,omitempty"`
	MarketValue     *string   `db:"market_value" json:"market_value,omitempty"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// PlayerUpsert carries the fields written by a sheet import or a data scrape.
// Nil fields are left untouched on update.
type PlayerUpsert struct {
	Name            string
	Club            *string
	Position        *string
	TransfermarktID string
	MarketValue     *string
}

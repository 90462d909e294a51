package model

import "time"

// Listing is a user-submitted classified advertisement. IsApproved is
// tri-state: nil means pending moderation. A listing counts against
// its owner's posting quota exactly once, at creation, regardless of
// later approval or deactivation.
type Listing struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	Price         string    `db:"price" json:"price"`
	Images        []string  `db:"images" json:"images"`
	CategoryID    int64     `db:"category_id" json:"category_id"`
	Latitude      float64   `db:"latitude" json:"latitude"`
	Longitude     float64   `db:"longitude" json:"longitude"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	IsApproved    *bool     `db:"is_approved" json:"is_approved"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	ListingType   string    `db:"listing_type" json:"listing_type"`
	PostedDate    time.Time `db:"posted_date" json:"posted_date"`
	ValidUntil    time.Time `db:"valid_until_date" json:"valid_until_date"`
	ViewCount     int       `db:"view_count" json:"view_count"`
	FavoriteCount int       `db:"favorite_count" json:"favorite_count"`
}

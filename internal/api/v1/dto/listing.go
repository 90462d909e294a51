package dto

import "time"

type ListingCreateDTO struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Price       string   `json:"price" validate:"required,max=20"`
	CategoryID  int64    `json:"category_id" validate:"required"`
	ListingType string   `json:"listing_type" validate:"required"`
	Images      []string `json:"images" validate:"max=10"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
}

type ListingResponseDTO struct {
	ID             int64     `json:"id"`
	CreatedBy      string    `json:"created_by"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          string    `json:"price"`
	CategoryID     int64     `json:"category_id"`
	ListingType    string    `json:"listing_type"`
	Images         []string  `json:"images"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	IsActive       bool      `json:"is_active"`
	IsApproved     *bool     `json:"is_approved"`
	ViewCount      int       `json:"view_count"`
	PostedDate     time.Time `json:"posted_date"`
	ValidUntilDate time.Time `json:"valid_until_date"`
}

type ListingApprovalDTO struct {
	Approved *bool `json:"approved" validate:"required"`
}

type UploadURLRequestDTO struct {
	Filename string `json:"filename" validate:"required,max=255"`
}

type UploadURLResponseDTO struct {
	UploadURL   string `json:"upload_url"`
	StoragePath string `json:"storage_path"`
}

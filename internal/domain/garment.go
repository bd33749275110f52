package domain

import "time"

// GarmentCategory enumerates supported garment categories.
type GarmentCategory string

const (
	CategoryShirt      GarmentCategory = "shirt"
	CategoryTShirt     GarmentCategory = "t-shirt"
	CategoryPants      GarmentCategory = "pants"
	CategoryJeans      GarmentCategory = "jeans"
	CategoryDress      GarmentCategory = "dress"
	CategorySkirt      GarmentCategory = "skirt"
	CategoryJacket     GarmentCategory = "jacket"
	CategoryCoat       GarmentCategory = "coat"
	CategorySweater    GarmentCategory = "sweater"
	CategoryShorts     GarmentCategory = "shorts"
	CategorySuit       GarmentCategory = "suit"
	CategoryActivewear GarmentCategory = "activewear"
)

var garmentCategories = map[GarmentCategory]struct{}{
	CategoryShirt:      {},
	CategoryTShirt:     {},
	CategoryPants:      {},
	CategoryJeans:      {},
	CategoryDress:      {},
	CategorySkirt:      {},
	CategoryJacket:     {},
	CategoryCoat:       {},
	CategorySweater:    {},
	CategoryShorts:     {},
	CategorySuit:       {},
	CategoryActivewear: {},
}

// ValidGarmentCategory reports whether c names a known category.
func ValidGarmentCategory(c GarmentCategory) bool {
	_, ok := garmentCategories[c]
	return ok
}

// Garment is a user-ingested clothing item. CleanedImageURL and
// ThumbnailURL are empty until the processing job completes.
type Garment struct {
	ID               string
	OwnerID          string
	Name             string
	Brand            string
	Category         GarmentCategory
	OriginalImageURL string
	CleanedImageURL  string
	ThumbnailURL     string
	Color            string
	AvailableSizes   []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

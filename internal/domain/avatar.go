package domain

import "time"

// BodyType enumerates supported avatar body type presets.
type BodyType string

const (
	BodyTypeEctomorph BodyType = "ectomorph"
	BodyTypeMesomorph BodyType = "mesomorph"
	BodyTypeEndomorph BodyType = "endomorph"
	BodyTypeAthletic  BodyType = "athletic"
	BodyTypeAverage   BodyType = "average"
)

// Measurements holds body measurements in centimeters. Optional fields are
// pointers so absent values survive a round trip through storage.
type Measurements struct {
	Height        float64
	Weight        *float64
	Chest         float64
	Waist         float64
	Hips          float64
	ShoulderWidth *float64
	ArmLength     *float64
	Inseam        *float64
}

// Avatar is a user's reconstructed body model. Model and thumbnail URLs are
// empty until the generation job completes.
type Avatar struct {
	ID           string
	OwnerID      string
	Name         string
	IsActive     bool
	Measurements Measurements
	BodyType     BodyType
	SkinTone     string
	HairColor    string
	ModelFileURL string
	ThumbnailURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidBodyType reports whether b names a known body type preset.
func ValidBodyType(b BodyType) bool {
	switch b {
	case BodyTypeEctomorph, BodyTypeMesomorph, BodyTypeEndomorph, BodyTypeAthletic, BodyTypeAverage:
		return true
	}
	return false
}

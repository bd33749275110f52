package domain

import "time"

// TryOnSession is a single virtual try-on of one garment on one avatar.
// ResultImageURL and FitScore are set once the render job completes.
// FitScore is on a 0-100 scale derived from the processor's confidence.
type TryOnSession struct {
	ID             string
	OwnerID        string
	AvatarID       string
	GarmentID      string
	Name           string
	ResultImageURL string
	FitScore       *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

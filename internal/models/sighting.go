package models

import (
	"fmt"
	"time"
)

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is a bounding box in image space: top-left corner plus size in pixels.
// The core treats it as opaque; it only matters for frame annotation.
type BBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Sighting represents a single observation of a tracked object, produced by
// the perception layer. Immutable once stored.
type Sighting struct {
	Label     string    `json:"label" binding:"required"`
	TrackID   int       `json:"trackId"` // identity hint, not stable across occlusion
	BBox      BBox      `json:"bbox"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
	Location  LatLng    `json:"location"`
}

// Validate checks the record shape at the store boundary.
func (s Sighting) Validate() error {
	if s.Label == "" {
		return fmt.Errorf("sighting: empty label")
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("sighting %q: zero timestamp", s.Label)
	}
	if s.Location.Lat < -90 || s.Location.Lat > 90 {
		return fmt.Errorf("sighting %q: latitude %f out of range", s.Label, s.Location.Lat)
	}
	if s.Location.Lon < -180 || s.Location.Lon > 180 {
		return fmt.Errorf("sighting %q: longitude %f out of range", s.Label, s.Location.Lon)
	}
	return nil
}

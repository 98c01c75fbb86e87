package models

// Zone is a named region of space represented by its centroid. Zones are
// recomputed on every training pass and never persisted independently.
type Zone struct {
	Name     string `json:"name"`
	Centroid LatLng `json:"centroid"`
}

// ZoneSeed is a user-configured starting point for a zone: a name and,
// optionally, an initial centroid the refinement starts from.
type ZoneSeed struct {
	Name string  `json:"name" koanf:"name"`
	Lat  float64 `json:"lat" koanf:"lat"`
	Lon  float64 `json:"lon" koanf:"lon"`
}

// Centroid returns the seed position as a LatLng.
func (s ZoneSeed) Centroid() LatLng {
	return LatLng{Lat: s.Lat, Lon: s.Lon}
}

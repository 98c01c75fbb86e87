package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ravlin/whereabouts/internal/models"
)

// Log line format, one record per line per label:
//
//	timestamp,track_id,x,y,w,h,lat,lon
//
// The timestamp is RFC 3339 with nanoseconds so a round trip through the log
// preserves precision. Files are plain CSV so they stay human-inspectable
// and appendable without rewriting prior lines.

const logFileExt = ".log"

func encodeRecord(s models.Sighting) []string {
	return []string{
		s.Timestamp.Format(time.RFC3339Nano),
		strconv.Itoa(s.TrackID),
		strconv.Itoa(s.BBox.X),
		strconv.Itoa(s.BBox.Y),
		strconv.Itoa(s.BBox.W),
		strconv.Itoa(s.BBox.H),
		strconv.FormatFloat(s.Location.Lat, 'f', -1, 64),
		strconv.FormatFloat(s.Location.Lon, 'f', -1, 64),
	}
}

func decodeRecord(label string, row []string) (models.Sighting, error) {
	if len(row) != 8 {
		return models.Sighting{}, fmt.Errorf("expected 8 fields, got %d", len(row))
	}

	ts, err := time.Parse(time.RFC3339Nano, row[0])
	if err != nil {
		return models.Sighting{}, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}

	trackID, err := strconv.Atoi(row[1])
	if err != nil {
		return models.Sighting{}, fmt.Errorf("bad track id %q: %w", row[1], err)
	}

	var box [4]int
	for i, raw := range row[2:6] {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return models.Sighting{}, fmt.Errorf("bad bbox field %q: %w", raw, err)
		}
		box[i] = v
	}

	lat, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return models.Sighting{}, fmt.Errorf("bad latitude %q: %w", row[6], err)
	}
	lon, err := strconv.ParseFloat(row[7], 64)
	if err != nil {
		return models.Sighting{}, fmt.Errorf("bad longitude %q: %w", row[7], err)
	}

	return models.Sighting{
		Label:     label,
		TrackID:   trackID,
		BBox:      models.BBox{X: box[0], Y: box[1], W: box[2], H: box[3]},
		Timestamp: ts,
		Location:  models.LatLng{Lat: lat, Lon: lon},
	}, nil
}

// Package timemodel builds per-hour occupancy distributions over zones
// from a label's sighting history.
package timemodel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ravlin/whereabouts/internal/models"
)

// Model maps each observed hour of day (0-23) to a probability
// distribution over zone names. Hours with no observations are absent from
// the table, never zero-filled or defaulted to uniform. The table is fully
// rebuilt on every Train call.
type Model struct {
	probs map[int]map[string]float64
}

// New returns an empty model.
func New() *Model {
	return &Model{probs: make(map[int]map[string]float64)}
}

// Train rebuilds the table from the sighting history. Each sighting is
// binned by its timestamp's own wall-clock hour (the hour the producer
// stamped, not a UTC conversion) and assigned to a zone via nearest. Counts
// per (hour, zone) are then normalized per hour.
func (m *Model) Train(history []models.Sighting, nearest func(models.LatLng) (models.Zone, error)) error {
	if len(history) == 0 {
		return models.ErrInsufficientData
	}

	counts := make(map[int]map[string]int)
	for _, ev := range history {
		zone, err := nearest(ev.Location)
		if err != nil {
			return fmt.Errorf("assign sighting at %s: %w", ev.Timestamp.Format("15:04:05"), err)
		}
		hour := ev.Timestamp.Hour()
		if counts[hour] == nil {
			counts[hour] = make(map[string]int)
		}
		counts[hour][zone.Name]++
	}

	probs := make(map[int]map[string]float64, len(counts))
	for hour, zoneCounts := range counts {
		row := make([]float64, 0, len(zoneCounts))
		for _, n := range zoneCounts {
			row = append(row, float64(n))
		}
		total := floats.Sum(row)

		dist := make(map[string]float64, len(zoneCounts))
		for zone, n := range zoneCounts {
			dist[zone] = float64(n) / total
		}
		probs[hour] = dist
	}

	m.probs = probs
	return nil
}

// ProbabilityTable returns the zone distribution for the hour. The second
// return value is false when the hour has no observations.
func (m *Model) ProbabilityTable(hour int) (map[string]float64, bool) {
	dist, ok := m.probs[hour]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(dist))
	for zone, p := range dist {
		out[zone] = p
	}
	return out, true
}

// Hours returns the populated hour bins, unordered.
func (m *Model) Hours() []int {
	hours := make([]int, 0, len(m.probs))
	for h := range m.probs {
		hours = append(hours, h)
	}
	return hours
}

// Package zones reduces a label's location history to a small set of named
// regions, each represented by a centroid.
package zones

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/ravlin/whereabouts/internal/models"
	"github.com/ravlin/whereabouts/internal/spatial"
)

// Config controls zone refinement.
type Config struct {
	// Seeds are user-configured zones. When empty, ZoneCount zones are
	// synthesized as "zone-N", seeded from the first distinct locations
	// in history order.
	Seeds []models.ZoneSeed

	// ZoneCount is the number of synthesized zones when no seeds are
	// configured. The number of zones is fixed, not learned.
	ZoneCount int

	// MaxIterations caps the assign/recompute loop.
	MaxIterations int

	// ConvergenceMeters stops refinement once no centroid moves farther
	// than this between iterations.
	ConvergenceMeters float64
}

// DefaultConfig returns the refinement parameters used when none are
// configured.
func DefaultConfig() Config {
	return Config{
		ZoneCount:         4,
		MaxIterations:     50,
		ConvergenceMeters: 0.5,
	}
}

// Model partitions observed locations into zones by bounded fixed-point
// iteration: assign each point to its nearest centroid, recompute centroids
// as the mean of their points, repeat until stable. Deterministic given the
// same history and seed configuration.
type Model struct {
	cfg     Config
	zones   []models.Zone
	trained bool
}

// New creates an untrained model.
func New(cfg Config) *Model {
	if cfg.ZoneCount <= 0 {
		cfg.ZoneCount = DefaultConfig().ZoneCount
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if cfg.ConvergenceMeters <= 0 {
		cfg.ConvergenceMeters = DefaultConfig().ConvergenceMeters
	}
	return &Model{cfg: cfg}
}

// Train reseeds the zones from the given location history. It fails with
// models.ErrInsufficientData when the history is empty. A history with
// fewer distinct points than zones yields one zone per available point,
// never an empty zone.
func (m *Model) Train(points []models.LatLng) error {
	if len(points) == 0 {
		return models.ErrInsufficientData
	}

	centroids := m.seedCentroids(points)

	for iter := 0; iter < m.cfg.MaxIterations; iter++ {
		assigned := assign(points, centroids)

		moved := 0.0
		for i := range centroids {
			if len(assigned[i]) == 0 {
				continue
			}
			next := meanLocation(assigned[i])
			if d := spatial.HaversineDistance(centroids[i].Centroid, next); d > moved {
				moved = d
			}
			centroids[i].Centroid = next
		}

		if moved < m.cfg.ConvergenceMeters {
			break
		}
	}

	m.zones = centroids
	m.trained = true
	return nil
}

// NearestZone returns the zone whose centroid is closest to loc. It fails
// with models.ErrNotTrained before the first successful Train.
func (m *Model) NearestZone(loc models.LatLng) (models.Zone, error) {
	if !m.trained {
		return models.Zone{}, models.ErrNotTrained
	}

	best := 0
	bestDist := spatial.HaversineDistance(loc, m.zones[0].Centroid)
	for i := 1; i < len(m.zones); i++ {
		if d := spatial.HaversineDistance(loc, m.zones[i].Centroid); d < bestDist {
			best, bestDist = i, d
		}
	}
	return m.zones[best], nil
}

// ZoneByName returns the named zone, or models.ErrNotTrained before the
// first successful Train.
func (m *Model) ZoneByName(name string) (models.Zone, error) {
	if !m.trained {
		return models.Zone{}, models.ErrNotTrained
	}
	for _, z := range m.zones {
		if z.Name == name {
			return z, nil
		}
	}
	return models.Zone{}, fmt.Errorf("unknown zone %q", name)
}

// Zones returns the current zones sorted by name.
func (m *Model) Zones() []models.Zone {
	out := make([]models.Zone, len(m.zones))
	copy(out, m.zones)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Trained reports whether Train has completed at least once.
func (m *Model) Trained() bool { return m.trained }

// seedCentroids builds the initial zone list: configured seeds when
// present, otherwise up to ZoneCount distinct points in first-appearance
// order named zone-1..zone-N.
func (m *Model) seedCentroids(points []models.LatLng) []models.Zone {
	if len(m.cfg.Seeds) > 0 {
		zones := make([]models.Zone, len(m.cfg.Seeds))
		for i, seed := range m.cfg.Seeds {
			zones[i] = models.Zone{Name: seed.Name, Centroid: seed.Centroid()}
		}
		return zones
	}

	var zones []models.Zone
	seen := make(map[models.LatLng]bool)
	for _, p := range points {
		if seen[p] {
			continue
		}
		seen[p] = true
		zones = append(zones, models.Zone{Name: zoneName(len(zones) + 1), Centroid: p})
		if len(zones) == m.cfg.ZoneCount {
			break
		}
	}
	return zones
}

func zoneName(n int) string {
	return "zone-" + strconv.Itoa(n)
}

// assign buckets each point under its nearest centroid index.
func assign(points []models.LatLng, zones []models.Zone) map[int][]models.LatLng {
	assigned := make(map[int][]models.LatLng, len(zones))
	for _, p := range points {
		best := 0
		bestDist := spatial.HaversineDistance(p, zones[0].Centroid)
		for i := 1; i < len(zones); i++ {
			if d := spatial.HaversineDistance(p, zones[i].Centroid); d < bestDist {
				best, bestDist = i, d
			}
		}
		assigned[best] = append(assigned[best], p)
	}
	return assigned
}

// meanLocation is the coordinate-wise mean of the points. Zones span rooms,
// not hemispheres, so averaging raw degrees is accurate enough here.
func meanLocation(points []models.LatLng) models.LatLng {
	lats := make([]float64, len(points))
	lons := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lons[i] = p.Lon
	}
	return models.LatLng{
		Lat: stat.Mean(lats, nil),
		Lon: stat.Mean(lons, nil),
	}
}

package timemodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravlin/whereabouts/internal/models"
	"github.com/ravlin/whereabouts/internal/zones"
)

var (
	desk    = models.LatLng{Lat: 52.52000, Lon: 13.40500}
	kitchen = models.LatLng{Lat: 52.52050, Lon: 13.40600}
)

func trainedZones(t *testing.T, points []models.LatLng) *zones.Model {
	t.Helper()
	cfg := zones.DefaultConfig()
	cfg.Seeds = []models.ZoneSeed{
		{Name: "desk", Lat: desk.Lat, Lon: desk.Lon},
		{Name: "kitchen", Lat: kitchen.Lat, Lon: kitchen.Lon},
	}
	zm := zones.New(cfg)
	require.NoError(t, zm.Train(points))
	return zm
}

func atHour(hour, minute int) time.Time {
	return time.Date(2025, 6, 1, hour, minute, 0, 0, time.UTC)
}

func TestTrainEmptyHistory(t *testing.T) {
	m := New()
	require.ErrorIs(t, m.Train(nil, nil), models.ErrInsufficientData)
}

func TestOccupancyDistribution(t *testing.T) {
	// 8 sightings near the desk seed and 2 near the kitchen seed, all at
	// hour 9.
	var history []models.Sighting
	var points []models.LatLng
	for i := 0; i < 8; i++ {
		history = append(history, models.Sighting{
			Label: "keys", Timestamp: atHour(9, i), Location: desk,
		})
		points = append(points, desk)
	}
	for i := 0; i < 2; i++ {
		history = append(history, models.Sighting{
			Label: "keys", Timestamp: atHour(9, 30+i), Location: kitchen,
		})
		points = append(points, kitchen)
	}

	zm := trainedZones(t, points)
	m := New()
	require.NoError(t, m.Train(history, zm.NearestZone))

	dist, ok := m.ProbabilityTable(9)
	require.True(t, ok)
	assert.InDelta(t, 0.8, dist["desk"], 1e-9)
	assert.InDelta(t, 0.2, dist["kitchen"], 1e-9)

	sum := 0.0
	for _, p := range dist {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestUnobservedHoursAreAbsent(t *testing.T) {
	history := []models.Sighting{
		{Label: "keys", Timestamp: atHour(9, 0), Location: desk},
	}
	zm := trainedZones(t, []models.LatLng{desk})

	m := New()
	require.NoError(t, m.Train(history, zm.NearestZone))

	_, ok := m.ProbabilityTable(20)
	assert.False(t, ok, "an hour with no observations must be absent, not uniform")
	assert.Equal(t, []int{9}, m.Hours())
}

func TestTrainRebuildsFromScratch(t *testing.T) {
	zm := trainedZones(t, []models.LatLng{desk, kitchen})

	m := New()
	require.NoError(t, m.Train([]models.Sighting{
		{Label: "keys", Timestamp: atHour(9, 0), Location: desk},
	}, zm.NearestZone))

	require.NoError(t, m.Train([]models.Sighting{
		{Label: "keys", Timestamp: atHour(14, 0), Location: kitchen},
	}, zm.NearestZone))

	_, ok := m.ProbabilityTable(9)
	assert.False(t, ok, "a retrain must not leak bins from the previous table")
	dist, ok := m.ProbabilityTable(14)
	require.True(t, ok)
	assert.InDelta(t, 1.0, dist["kitchen"], 1e-9)
}

func TestProbabilityTableReturnsCopy(t *testing.T) {
	zm := trainedZones(t, []models.LatLng{desk})
	m := New()
	require.NoError(t, m.Train([]models.Sighting{
		{Label: "keys", Timestamp: atHour(9, 0), Location: desk},
	}, zm.NearestZone))

	dist, ok := m.ProbabilityTable(9)
	require.True(t, ok)
	dist["desk"] = 0

	again, _ := m.ProbabilityTable(9)
	assert.InDelta(t, 1.0, again["desk"], 1e-9)
}

func TestHourBinUsesTimestampWallClock(t *testing.T) {
	zm := trainedZones(t, []models.LatLng{desk})

	// 23:30 in UTC+2: the bin is the stamped hour 23, not the UTC hour 21.
	cest := time.FixedZone("CEST", 2*60*60)
	m := New()
	require.NoError(t, m.Train([]models.Sighting{
		{Label: "keys", Timestamp: time.Date(2025, 6, 1, 23, 30, 0, 0, cest), Location: desk},
	}, zm.NearestZone))

	_, ok := m.ProbabilityTable(21)
	assert.False(t, ok)
	_, ok = m.ProbabilityTable(23)
	assert.True(t, ok)
}

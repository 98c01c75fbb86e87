package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravlin/whereabouts/internal/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)
	return st, dir
}

func sightingAt(label string, ts time.Time, loc models.LatLng) models.Sighting {
	return models.Sighting{
		Label:     label,
		TrackID:   7,
		BBox:      models.BBox{X: 10, Y: 20, W: 30, H: 40},
		Timestamp: ts,
		Location:  loc,
	}
}

func TestStoreOrderingAndLastSeen(t *testing.T) {
	st, _ := newTestStore(t)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var stored []models.Sighting
	for i := 0; i < 5; i++ {
		ev := sightingAt("keys", base.Add(time.Duration(i)*time.Minute),
			models.LatLng{Lat: 52.0 + float64(i)*0.001, Lon: 13.0})
		ev.TrackID = i
		require.NoError(t, st.StoreSighting(ev))
		stored = append(stored, ev)
	}

	last, ok := st.LastSeen("keys")
	require.True(t, ok)
	assert.Equal(t, stored[4], last)

	got := st.Sightings("keys", nil)
	if diff := cmp.Diff(stored, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripPreservesFields(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)

	// Nanosecond precision and a non-UTC offset must both survive.
	loc := time.FixedZone("CEST", 2*60*60)
	ev := models.Sighting{
		Label:     "wallet",
		TrackID:   42,
		BBox:      models.BBox{X: 1, Y: 2, W: 3, H: 4},
		Timestamp: time.Date(2025, 6, 1, 9, 30, 15, 123456789, loc),
		Location:  models.LatLng{Lat: 52.520008, Lon: 13.404954},
	}
	require.NoError(t, st.StoreSighting(ev))

	// Reopen so the record comes back off disk, not just out of the cache.
	st2, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)

	got := st2.Sightings("wallet", nil)
	require.Len(t, got, 1)
	assert.Equal(t, ev.TrackID, got[0].TrackID)
	assert.Equal(t, ev.BBox, got[0].BBox)
	assert.Equal(t, ev.Location, got[0].Location)
	assert.True(t, ev.Timestamp.Equal(got[0].Timestamp),
		"timestamp %s != %s", ev.Timestamp, got[0].Timestamp)
}

func TestSinceFilterIsInclusive(t *testing.T) {
	st, _ := newTestStore(t)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, st.StoreSighting(
			sightingAt("keys", base.Add(time.Duration(i)*time.Hour), models.LatLng{Lat: 52, Lon: 13})))
	}

	cut := base.Add(2 * time.Hour)
	got := st.Sightings("keys", &cut)
	require.Len(t, got, 2)
	assert.True(t, got[0].Timestamp.Equal(cut))

	all := st.Sightings("keys", nil)
	assert.Len(t, all, 4)
}

func TestUntilFilterIsInclusive(t *testing.T) {
	st, _ := newTestStore(t)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, st.StoreSighting(
			sightingAt("keys", base.Add(time.Duration(i)*time.Hour), models.LatLng{Lat: 52, Lon: 13})))
	}

	until := base.Add(1 * time.Hour)
	got := st.SightingsBetween("keys", nil, &until)
	require.Len(t, got, 2)
	assert.True(t, got[1].Timestamp.Equal(until))
}

func TestUnknownLabelReadsAreEmpty(t *testing.T) {
	st, _ := newTestStore(t)

	_, ok := st.LastSeen("ghost")
	assert.False(t, ok)
	assert.Empty(t, st.Sightings("ghost", nil))
	assert.Empty(t, st.Labels())
}

func TestSnapshotIndependence(t *testing.T) {
	st, _ := newTestStore(t)

	ts := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.StoreSighting(sightingAt("keys", ts, models.LatLng{Lat: 52, Lon: 13})))

	snapshot := st.Sightings("keys", nil)
	require.Len(t, snapshot, 1)

	require.NoError(t, st.StoreSighting(sightingAt("keys", ts.Add(time.Minute), models.LatLng{Lat: 52, Lon: 13})))
	assert.Len(t, snapshot, 1, "earlier snapshot must not grow")
}

func TestReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.StoreSighting(
			sightingAt("keys", base.Add(time.Duration(i)*time.Minute), models.LatLng{Lat: 52, Lon: 13})))
	}

	st2, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"keys"}, st2.Labels())
	assert.Len(t, st2.Sightings("keys", nil), 3)
}

func TestMalformedLinesAreSkipped(t *testing.T) {
	dir := t.TempDir()

	content := "not,a,valid,record\n" +
		"2025-06-01T09:00:00Z,1,10,20,30,40,52.5,13.4\n" +
		"2025-06-01T09:05:00Z,oops,10,20,30,40,52.5,13.4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys.log"), []byte(content), 0o644))

	st, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)

	got := st.Sightings("keys", nil)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].TrackID)
}

func TestFailedAppendLeavesCacheUntouched(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)

	// A directory squatting on the log path makes the append fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "keys.log"), 0o755))

	err = st.StoreSighting(sightingAt("keys",
		time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), models.LatLng{Lat: 52, Lon: 13}))
	require.Error(t, err)

	var storageErr *models.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "keys", storageErr.Label)

	_, ok := st.LastSeen("keys")
	assert.False(t, ok, "cache must not reflect a failed durable write")
}

func TestValidationAtStoreBoundary(t *testing.T) {
	st, _ := newTestStore(t)
	ts := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	assert.Error(t, st.StoreSighting(sightingAt("", ts, models.LatLng{Lat: 52, Lon: 13})))
	assert.Error(t, st.StoreSighting(sightingAt("keys", time.Time{}, models.LatLng{Lat: 52, Lon: 13})))
	assert.Error(t, st.StoreSighting(sightingAt("keys", ts, models.LatLng{Lat: 123, Lon: 13})))
	assert.Empty(t, st.Labels())
}

func TestConcurrentWritesAndReads(t *testing.T) {
	st, _ := newTestStore(t)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	labels := []string{"keys", "wallet", "phone"}
	var wg sync.WaitGroup
	for _, label := range labels {
		wg.Add(1)
		go func(label string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				ev := sightingAt(label, base.Add(time.Duration(i)*time.Second), models.LatLng{Lat: 52, Lon: 13})
				if err := st.StoreSighting(ev); err != nil {
					t.Error(err)
					return
				}
			}
		}(label)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			for _, label := range labels {
				st.Sightings(label, nil)
				st.LastSeen(label)
			}
		}
	}()
	wg.Wait()

	for _, label := range labels {
		assert.Len(t, st.Sightings(label, nil), 50)
	}
}

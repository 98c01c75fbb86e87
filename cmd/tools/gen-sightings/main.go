// Command gen-sightings writes synthetic sighting logs for demos and
// manual testing of the inference engine.
package main

import (
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ravlin/whereabouts/internal/models"
	"github.com/ravlin/whereabouts/internal/store"
)

// spot is a location the generated object frequents during a span of hours.
type spot struct {
	name      string
	center    models.LatLng
	fromHour  int
	untilHour int
}

func main() {
	dir := flag.String("dir", "./data/sightings", "storage directory")
	label := flag.String("label", "keys", "object label")
	days := flag.Int("days", 7, "number of days of history")
	perHour := flag.Int("per-hour", 2, "sightings per occupied hour")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	st, err := store.Open(*dir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	// A daily routine: desk during the day, kitchen around meals,
	// bedside at night.
	spots := []spot{
		{name: "desk", center: models.LatLng{Lat: 52.52001, Lon: 13.40500}, fromHour: 9, untilHour: 18},
		{name: "kitchen", center: models.LatLng{Lat: 52.52010, Lon: 13.40520}, fromHour: 18, untilHour: 21},
		{name: "bedside", center: models.LatLng{Lat: 52.52020, Lon: 13.40490}, fromHour: 21, untilHour: 24},
	}

	rng := rand.New(rand.NewSource(*seed))
	start := time.Now().AddDate(0, 0, -*days).Truncate(24 * time.Hour)

	total := 0
	for day := 0; day < *days; day++ {
		for _, sp := range spots {
			for hour := sp.fromHour; hour < sp.untilHour; hour++ {
				for i := 0; i < *perHour; i++ {
					ts := start.AddDate(0, 0, day).
						Add(time.Duration(hour) * time.Hour).
						Add(time.Duration(rng.Intn(3600)) * time.Second)
					ev := models.Sighting{
						Label:     *label,
						TrackID:   day + 1,
						BBox:      models.BBox{X: 100 + rng.Intn(50), Y: 80 + rng.Intn(50), W: 60, H: 40},
						Timestamp: ts,
						// ~1m of GPS jitter around the spot
						Location: models.LatLng{
							Lat: sp.center.Lat + (rng.Float64()-0.5)*2e-5,
							Lon: sp.center.Lon + (rng.Float64()-0.5)*2e-5,
						},
					}
					if err := st.StoreSighting(ev); err != nil {
						log.Fatal().Err(err).Msg("failed to store sighting")
					}
					total++
				}
			}
		}
	}

	log.Info().Int("sightings", total).Str("label", *label).Str("dir", *dir).
		Msg("generated synthetic history")
}

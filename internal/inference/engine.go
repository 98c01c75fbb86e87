// Package inference answers "where is X" queries with freshness-first,
// model-fallback logic over the sighting store.
package inference

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ravlin/whereabouts/internal/models"
	"github.com/ravlin/whereabouts/internal/store"
	"github.com/ravlin/whereabouts/internal/timemodel"
	"github.com/ravlin/whereabouts/internal/timeutil"
	"github.com/ravlin/whereabouts/internal/zones"
)

// DefaultFreshness is how recent a sighting must be to be trusted over the
// probabilistic model when no threshold is configured.
const DefaultFreshness = 5 * time.Minute

// trainedModels is one label's zone model + time model pair, rebuilt as a
// unit by Train and read as an immutable snapshot afterwards.
type trainedModels struct {
	zones *zones.Model
	time  *timemodel.Model
}

// Engine orchestrates model training and answers point queries.
type Engine struct {
	store     *store.Store
	clock     timeutil.Clock
	freshness time.Duration
	zoneCfg   zones.Config
	log       zerolog.Logger

	mu     sync.RWMutex
	models map[string]trainedModels
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithFreshness sets the freshness threshold.
func WithFreshness(d time.Duration) Option {
	return func(e *Engine) { e.freshness = d }
}

// WithZoneConfig sets the zone seeding/refinement parameters.
func WithZoneConfig(cfg zones.Config) Option {
	return func(e *Engine) { e.zoneCfg = cfg }
}

// New creates an engine over the given store.
func New(st *store.Store, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		clock:     timeutil.RealClock{},
		freshness: DefaultFreshness,
		zoneCfg:   zones.DefaultConfig(),
		log:       logger.With().Str("component", "inference").Logger(),
		models:    make(map[string]trainedModels),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TrainTimeModel rebuilds the label's zone model and time model from the
// full history as it stands right now. Idempotent: two calls with no new
// data produce identical models. Sightings stored while training runs are
// picked up by the next call, not this one.
func (e *Engine) TrainTimeModel(label string) error {
	history := e.store.Sightings(label, nil)
	if len(history) == 0 {
		return fmt.Errorf("train %q: %w", label, models.ErrInsufficientData)
	}

	points := make([]models.LatLng, len(history))
	for i, ev := range history {
		points[i] = ev.Location
	}

	zm := zones.New(e.zoneCfg)
	if err := zm.Train(points); err != nil {
		return fmt.Errorf("train %q: %w", label, err)
	}

	tm := timemodel.New()
	if err := tm.Train(history, zm.NearestZone); err != nil {
		return fmt.Errorf("train %q: %w", label, err)
	}

	e.mu.Lock()
	e.models[label] = trainedModels{zones: zm, time: tm}
	e.mu.Unlock()

	e.log.Info().Str("label", label).Int("sightings", len(history)).
		Int("zones", len(zm.Zones())).Msg("time model trained")
	return nil
}

// prediction is the resolved outcome of the per-label state machine.
type prediction struct {
	fresh    bool
	location models.LatLng

	// fallback fields, set when fresh is false
	hour     int
	zone     models.Zone
	prob     float64
	lastSeen models.Sighting
}

// resolve runs the state machine: no history -> fresh sighting -> hourly
// model fallback. A label with history but no trained models is trained on
// the spot from the current history, so first-time queries work without an
// explicit train call.
func (e *Engine) resolve(label string, at time.Time) (prediction, error) {
	last, ok := e.store.LastSeen(label)
	if !ok {
		return prediction{}, fmt.Errorf("predict %q: %w", label, models.ErrNoHistory)
	}

	if at.Sub(last.Timestamp) <= e.freshness {
		return prediction{fresh: true, location: last.Location, lastSeen: last}, nil
	}

	e.mu.RLock()
	m, trained := e.models[label]
	e.mu.RUnlock()
	if !trained {
		if err := e.TrainTimeModel(label); err != nil {
			return prediction{}, err
		}
		e.mu.RLock()
		m = e.models[label]
		e.mu.RUnlock()
	}

	hour := at.Hour()
	dist, ok := m.time.ProbabilityTable(hour)
	if !ok {
		return prediction{hour: hour, lastSeen: last},
			fmt.Errorf("predict %q at hour %d: %w", label, hour, models.ErrNoDataForHour)
	}

	// Strictly highest probability wins; ties break on zone name so the
	// answer is deterministic.
	names := make([]string, 0, len(dist))
	for name := range dist {
		names = append(names, name)
	}
	sort.Strings(names)

	winner := names[0]
	for _, name := range names[1:] {
		if dist[name] > dist[winner] {
			winner = name
		}
	}

	zone, err := m.zones.ZoneByName(winner)
	if err != nil {
		return prediction{}, fmt.Errorf("predict %q: %w", label, err)
	}

	return prediction{
		location: zone.Centroid,
		hour:     hour,
		zone:     zone,
		prob:     dist[winner],
		lastSeen: last,
	}, nil
}

// PredictLocation estimates where the label is at the given time. A zero
// at defaults to now. Failures are typed: models.ErrNoHistory when the
// label was never seen, models.ErrNoDataForHour when the model has nothing
// for that hour bin.
func (e *Engine) PredictLocation(label string, at time.Time) (models.LatLng, error) {
	if at.IsZero() {
		at = e.clock.Now()
	}
	p, err := e.resolve(label, at)
	if err != nil {
		return models.LatLng{}, err
	}
	return p.location, nil
}

// ExplainPrediction runs the same state machine as PredictLocation but
// renders a human-readable rationale. Data-absence states produce a plain
// "no inference" sentence rather than an error.
func (e *Engine) ExplainPrediction(label string, at time.Time) (string, error) {
	if at.IsZero() {
		at = e.clock.Now()
	}
	p, err := e.resolve(label, at)
	switch {
	case err == nil && p.fresh:
		age := at.Sub(p.lastSeen.Timestamp)
		return fmt.Sprintf("Your %s was seen %d seconds ago at (%.5f, %.5f). Returning that location.",
			label, int(age.Seconds()), p.location.Lat, p.location.Lon), nil
	case err == nil:
		return fmt.Sprintf("No recent sightings. Between %02d:00 and %02d:00, your %s was in %q %.1f%% of the time (centroid at (%.5f, %.5f)).",
			p.hour, (p.hour+1)%24, label, p.zone.Name, p.prob*100,
			p.zone.Centroid.Lat, p.zone.Centroid.Lon), nil
	case isNoDataForHour(err):
		return fmt.Sprintf("No data for hour %d. Unable to infer where your %s is.", at.Hour(), label), nil
	case isNoHistory(err):
		return fmt.Sprintf("I have never seen your %s. Unable to infer a location.", label), nil
	default:
		return "", err
	}
}

func isNoHistory(err error) bool     { return errors.Is(err, models.ErrNoHistory) }
func isNoDataForHour(err error) bool { return errors.Is(err, models.ErrNoDataForHour) }

// History returns the label's sightings, oldest first, within the
// inclusive [since, until] bounds. Nil bounds are open.
func (e *Engine) History(label string, since, until *time.Time) []models.Sighting {
	return e.store.SightingsBetween(label, since, until)
}

// LastSeen returns the most recent sighting, or nil when the label has
// never been observed.
func (e *Engine) LastSeen(label string) *models.Sighting {
	ev, ok := e.store.LastSeen(label)
	if !ok {
		return nil
	}
	return &ev
}

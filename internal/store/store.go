// Package store is the durable, queryable record of object sightings.
//
// Each tracked label owns one append-only log file under the storage
// directory, mirrored by an in-memory cache. The two are updated as one
// logical unit: the cache is only touched after the durable append has
// completed, so readers never observe a cached record that is not on disk.
package store

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ravlin/whereabouts/internal/models"
)

// Store holds the per-label sighting logs and their in-memory mirror.
type Store struct {
	dir string
	log zerolog.Logger

	mu    sync.RWMutex // guards cache and labelMu maps
	cache map[string][]models.Sighting

	labelMu map[string]*sync.Mutex // serializes appends per label
}

// Open creates the storage directory if needed and loads any existing logs
// into the cache. Malformed lines are skipped with a warning, matching the
// best-effort read policy for human-editable logs.
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &models.StorageError{Op: "open", Err: err}
	}

	s := &Store{
		dir:     dir,
		log:     logger.With().Str("component", "store").Logger(),
		cache:   make(map[string][]models.Sighting),
		labelMu: make(map[string]*sync.Mutex),
	}
	if err := s.loadExisting(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadExisting() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return &models.StorageError{Op: "scan", Err: err}
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, logFileExt) {
			continue
		}
		label := strings.TrimSuffix(name, logFileExt)

		f, err := os.Open(filepath.Join(s.dir, name))
		if err != nil {
			return &models.StorageError{Label: label, Op: "read", Err: err}
		}

		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1

		var events []models.Sighting
		skipped := 0
		for {
			row, err := reader.Read()
			if err != nil {
				break
			}
			ev, err := decodeRecord(label, row)
			if err != nil {
				skipped++
				continue
			}
			events = append(events, ev)
		}
		f.Close()

		if skipped > 0 {
			s.log.Warn().Str("label", label).Int("skipped", skipped).
				Msg("skipped malformed log lines")
		}
		if len(events) > 0 {
			s.cache[label] = events
		}
	}
	return nil
}

// lockLabel returns the append mutex for a label, creating it on first use.
func (s *Store) lockLabel(label string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.labelMu[label]
	if !ok {
		mu = &sync.Mutex{}
		s.labelMu[label] = mu
	}
	return mu
}

// StoreSighting appends the sighting to the label's durable log and, once
// the write has completed, to the in-memory cache. On a write failure the
// cache is left untouched and a *models.StorageError is returned, so the
// two never diverge.
func (s *Store) StoreSighting(ev models.Sighting) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	mu := s.lockLabel(ev.Label)
	mu.Lock()
	defer mu.Unlock()

	if last, ok := s.LastSeen(ev.Label); ok && ev.Timestamp.Before(last.Timestamp) {
		// Best-effort append: arrival order wins, but it is worth knowing.
		s.log.Warn().Str("label", ev.Label).
			Time("timestamp", ev.Timestamp).
			Time("previous", last.Timestamp).
			Msg("sighting timestamp regressed")
	}

	if err := s.appendLine(ev); err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[ev.Label] = append(s.cache[ev.Label], ev)
	s.mu.Unlock()
	return nil
}

func (s *Store) appendLine(ev models.Sighting) error {
	path := filepath.Join(s.dir, ev.Label+logFileExt)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &models.StorageError{Label: ev.Label, Op: "append", Err: err}
	}

	w := csv.NewWriter(f)
	if err := w.Write(encodeRecord(ev)); err != nil {
		f.Close()
		return &models.StorageError{Label: ev.Label, Op: "append", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return &models.StorageError{Label: ev.Label, Op: "append", Err: err}
	}
	if err := f.Close(); err != nil {
		return &models.StorageError{Label: ev.Label, Op: "append", Err: err}
	}
	return nil
}

// LastSeen returns the most recently stored sighting for the label.
// The second return value is false when the label has never been observed.
func (s *Store) LastSeen(label string) (models.Sighting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.cache[label]
	if len(events) == 0 {
		return models.Sighting{}, false
	}
	return events[len(events)-1], true
}

// Sightings returns the label's history, oldest first, optionally limited
// to records with timestamp >= since. The result is an independent
// snapshot; later stores do not mutate it. Unknown labels yield an empty
// slice, not an error.
func (s *Store) Sightings(label string, since *time.Time) []models.Sighting {
	return s.SightingsBetween(label, since, nil)
}

// SightingsBetween is Sightings with an inclusive upper bound as well.
func (s *Store) SightingsBetween(label string, since, until *time.Time) []models.Sighting {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.cache[label]
	out := make([]models.Sighting, 0, len(events))
	for _, ev := range events {
		if since != nil && ev.Timestamp.Before(*since) {
			continue
		}
		if until != nil && ev.Timestamp.After(*until) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Labels returns the sorted set of labels with at least one sighting.
func (s *Store) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, 0, len(s.cache))
	for label := range s.cache {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

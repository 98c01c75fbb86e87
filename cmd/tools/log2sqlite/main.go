// Command log2sqlite exports sighting logs into a SQLite database for
// ad-hoc SQL inspection. The logs stay the system of record; the database
// is a disposable view.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/ravlin/whereabouts/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS sightings (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	label     TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	track_id  INTEGER NOT NULL,
	x         INTEGER NOT NULL,
	y         INTEGER NOT NULL,
	w         INTEGER NOT NULL,
	h         INTEGER NOT NULL,
	lat       REAL NOT NULL,
	lon       REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sightings_label_ts ON sightings(label, timestamp);
`

func main() {
	dir := flag.String("dir", "./data/sightings", "storage directory")
	out := flag.String("o", "sightings.db", "output database path")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	st, err := store.Open(*dir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	if err := export(st, *out); err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}
	log.Info().Str("path", *out).Msg("export complete")
}

func export(st *store.Store, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO sightings
		(label, timestamp, track_id, x, y, w, h, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for _, label := range st.Labels() {
		for _, ev := range st.Sightings(label, nil) {
			_, err := stmt.Exec(ev.Label, ev.Timestamp.Format(time.RFC3339Nano),
				ev.TrackID, ev.BBox.X, ev.BBox.Y, ev.BBox.W, ev.BBox.H,
				ev.Location.Lat, ev.Location.Lon)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to insert sighting: %w", err)
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	fmt.Printf("exported %d sightings\n", rows)
	return nil
}

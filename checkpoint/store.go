/*
 * store.go, part of goneb.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package checkpoint keeps the manifest of saved states in a SQLite database.
//Each checkpoint belongs to a series (usually a simulation name) and has an
//explicit integer index, so the latest state of a series is a query, not a
//guess made from file names.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	neb "github.com/rmera/goneb"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	series  TEXT NOT NULL,
	idx     INTEGER NOT NULL,
	path    TEXT NOT NULL,
	created TEXT NOT NULL,
	PRIMARY KEY (series, idx)
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_series ON checkpoints(series, idx DESC);
`

//Store is a SQLite checkpoint manifest. It implements neb.Manifest.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

//Open opens (creating it if needed) the manifest at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", dbPath, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create manifest schema: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

//Path returns the location of the database.
func (s *Store) Path() string { return s.dbPath }

//Record adds c to the manifest. Recording the same series and index again
//replaces the path.
func (s *Store) Record(ctx context.Context, c neb.Checkpoint) error {
	if c.Series == "" {
		return fmt.Errorf("checkpoint without series: %s", c.Path)
	}
	if c.Index < 0 {
		return fmt.Errorf("negative checkpoint index %d for %s", c.Index, c.Series)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (series, idx, path, created) VALUES (?, ?, ?, ?)
		ON CONFLICT(series, idx) DO UPDATE SET path = excluded.path, created = excluded.created`,
		c.Series, c.Index, c.Path, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record checkpoint %d of %s: %w", c.Index, c.Series, err)
	}
	return nil
}

//Latest returns the checkpoint of series with the largest index. If the
//series has no checkpoints, the error wraps neb.ErrNoCheckpoint.
func (s *Store) Latest(ctx context.Context, series string) (neb.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := neb.Checkpoint{Series: series}
	err := s.db.QueryRowContext(ctx,
		`SELECT idx, path FROM checkpoints WHERE series = ? ORDER BY idx DESC LIMIT 1`, series).Scan(&c.Index, &c.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return neb.Checkpoint{}, fmt.Errorf("series %q: %w", series, neb.ErrNoCheckpoint)
	}
	if err != nil {
		return neb.Checkpoint{}, fmt.Errorf("failed to query series %q: %w", series, err)
	}
	return c, nil
}

//List returns every checkpoint of series, by increasing index.
func (s *Store) List(ctx context.Context, series string) ([]neb.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, path FROM checkpoints WHERE series = ? ORDER BY idx`, series)
	if err != nil {
		return nil, fmt.Errorf("failed to query series %q: %w", series, err)
	}
	defer rows.Close()
	var ret []neb.Checkpoint
	for rows.Next() {
		c := neb.Checkpoint{Series: series}
		if err := rows.Scan(&c.Index, &c.Path); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		ret = append(ret, c)
	}
	return ret, rows.Err()
}

//Series returns the names of all series in the manifest, sorted.
func (s *Store) Series(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT series FROM checkpoints ORDER BY series`)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer rows.Close()
	var ret []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		ret = append(ret, name)
	}
	return ret, rows.Err()
}

//Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

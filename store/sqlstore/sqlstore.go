// Package sqlstore implements store.Store on SQLite or Postgres through
// db.CompatDB. Queries are written with ? placeholders and rewritten for
// Postgres by the wrapper.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/EduardoCrCo/final-backend-sub000/db"
	"github.com/EduardoCrCo/final-backend-sub000/store"
)

// Store is the SQL-backed store.Store.
type Store struct {
	db *db.CompatDB
}

// New wraps an open, migrated database.
func New(d *db.CompatDB) *Store {
	return &Store{db: d}
}

// Open connects, migrates and returns a ready Store.
func Open(ctx context.Context, dialect db.Dialect, dsn string) (*Store, error) {
	d, err := db.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, d); err != nil {
		d.Close()
		return nil, err
	}
	return New(d), nil
}

func (s *Store) Users() store.Users         { return &userRepo{db: s.db} }
func (s *Store) Videos() store.Videos       { return &videoRepo{db: s.db} }
func (s *Store) Playlists() store.Playlists { return &playlistRepo{db: s.db} }
func (s *Store) Reviews() store.Reviews     { return &reviewRepo{db: s.db} }

// DB exposes the underlying handle for maintenance commands and tests.
func (s *Store) DB() *db.CompatDB { return s.db }

func (s *Store) Close(context.Context) error { return s.db.Close() }

type scanner interface {
	Scan(dest ...interface{}) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func idArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

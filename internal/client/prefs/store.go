// Package prefs implements the durable key-value preference store that backs
// the sign-in session: username, token, the serialized credential set, and
// the last-used local credential id all live here and survive restarts.
//
// Plain string values sit in the prefs table; string sets (the credential
// cache) sit in pref_sets. Writes used by state-changing operations go
// through transactions and are confirmed before success is reported.
package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dkurilov/boardpass/internal/dbx"
	"github.com/dkurilov/boardpass/internal/watch"
)

// KV is one key-value pair for a multi-key transactional write.
type KV struct {
	Key   string
	Value string
}

// Store is a preference store backed by a SQL database. It additionally
// exposes live views of string-set keys via WatchStringSet.
type Store struct {
	db *sql.DB

	// mu guards watches and keeps set commits and their notifications in
	// commit order across concurrent writers.
	mu      sync.Mutex
	watches map[string]*watch.Value[[]string]
}

// NewStore wraps an already-opened database. The schema must be in place;
// use Open to create and migrate a database from a DSN.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, watches: make(map[string]*watch.Value[[]string])}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetString returns the value stored under key. The second return reports
// whether the key was present.
func (s *Store) GetString(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get pref[%s]: %w", key, err)
	}
	return value, true, nil
}

// PutString durably writes a single string value. The write is confirmed
// before the call returns.
func (s *Store) PutString(ctx context.Context, key string, value string) error {
	return putString(ctx, s.db, key, value)
}

// PutStrings writes several keys in one transaction. State-critical fields
// (username and token) must land together or not at all; this is what keeps
// the "token present implies username present" invariant across crashes.
func (s *Store) PutStrings(ctx context.Context, pairs ...KV) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, p := range pairs {
			if err := putString(ctx, tx, p.Key, p.Value); err != nil {
				return err
			}
		}
		return nil
	})
}

func putString(ctx context.Context, db dbx.DBTX, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set pref[%s]: %w", key, err)
	}
	return nil
}

// Remove deletes the given keys from both the plain and the set tables in
// one transaction. Watchers of removed set keys observe an empty set.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM prefs WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to delete pref[%s]: %w", key, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM pref_sets WHERE key = ?`, key); err != nil {
				return fmt.Errorf("failed to delete pref set[%s]: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		s.notifySetLocked(key, nil)
	}
	return nil
}

// GetStringSet returns the members stored under key, or an empty slice when
// the key is absent. Member order is unspecified; set semantics only.
func (s *Store) GetStringSet(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT member FROM pref_sets WHERE key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get pref set[%s]: %w", key, err)
	}
	defer rows.Close()

	members := make([]string, 0)
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan pref set row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pref set rows: %w", err)
	}
	return members, nil
}

// PutStringSet replaces the members stored under key and notifies watchers.
// Writers to the same store serialize, so watchers see replacements in the
// order they were committed.
func (s *Store) PutStringSet(ctx context.Context, key string, members []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pref_sets WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to clear pref set[%s]: %w", key, err)
		}
		for _, m := range members {
			if _, err := tx.ExecContext(ctx, `INSERT INTO pref_sets (key, member) VALUES (?, ?)`, key, m); err != nil {
				return fmt.Errorf("failed to insert pref set[%s] member: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifySetLocked(key, members)
	return nil
}

// WatchStringSet returns a live view of the set stored under key. The view
// is seeded from the database and updated after every PutStringSet/Remove.
func (s *Store) WatchStringSet(ctx context.Context, key string) (*watch.Value[[]string], error) {
	s.mu.Lock()
	if w, ok := s.watches[key]; ok {
		s.mu.Unlock()
		return w, nil
	}
	s.mu.Unlock()

	members, err := s.GetStringSet(ctx, key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.watches[key]; ok {
		return w, nil
	}
	w := watch.NewValue(members)
	s.watches[key] = w
	return w, nil
}

// notifySetLocked pushes the new members to the key's watch. Callers hold
// s.mu across the commit and the notification.
func (s *Store) notifySetLocked(key string, members []string) {
	w, ok := s.watches[key]
	if !ok {
		return
	}
	if members == nil {
		members = []string{}
	}
	w.Set(members)
}

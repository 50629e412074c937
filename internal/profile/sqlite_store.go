package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/accctl/internal/acc"
	"git.home.luguber.info/inful/accctl/internal/foundation/errors"
)

// SQLiteStore keeps the index and the snapshots in two tables of one database.
// Each mutation runs in a single transaction, index statement first.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profile_index (
		name TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profile_position ON profile_index(position);
	CREATE TABLE IF NOT EXISTS profile_snapshots (
		name TEXT PRIMARY KEY,
		config TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listNames(ctx, s.db)
}

func (s *SQLiteStore) Read(ctx context.Context, name string) (acc.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT config FROM profile_snapshots WHERE name = ?", name).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return acc.Config{}, notFound(name)
	}
	if err != nil {
		return acc.Config{}, storageErr(err, "read profile snapshot", name)
	}
	var cfg acc.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return acc.Config{}, storageErr(err, "decode profile snapshot", name)
	}
	return cfg, nil
}

func (s *SQLiteStore) Write(ctx context.Context, names []string) error {
	if err := validateNames(names); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, n := range names {
			ok, err := hasSnapshot(ctx, tx, n)
			if err != nil {
				return err
			}
			if !ok {
				return notFound(n)
			}
		}
		if err := replaceIndex(ctx, tx, names); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM profile_snapshots WHERE name NOT IN (SELECT name FROM profile_index)"); err != nil {
			return errors.WrapError(err, errors.CategoryStorage, "drop unindexed snapshots").Build()
		}
		return nil
	})
}

func (s *SQLiteStore) Create(ctx context.Context, name string, cfg acc.Config) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return storageErr(err, "encode profile snapshot", name)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profile_index (name, position)
			 SELECT ?, COALESCE(MAX(position), -1) + 1 FROM profile_index WHERE true
			 ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return storageErr(err, "append profile index", name)
		}
		return upsertSnapshot(ctx, tx, name, payload)
	})
}

func (s *SQLiteStore) Update(ctx context.Context, name string, cfg acc.Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return storageErr(err, "encode profile snapshot", name)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := indexed(ctx, tx, name)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(name)
		}
		return upsertSnapshot(ctx, tx, name, payload)
	})
}

func (s *SQLiteStore) Rename(ctx context.Context, oldName, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := indexed(ctx, tx, newName)
		if err != nil {
			return err
		}
		if taken {
			return alreadyExists(newName)
		}
		res, err := tx.ExecContext(ctx, "UPDATE profile_index SET name = ? WHERE name = ?", newName, oldName)
		if err != nil {
			return storageErr(err, "rename profile index entry", oldName)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound(oldName)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM profile_snapshots WHERE name = ?", newName); err != nil {
			return storageErr(err, "clear stale snapshot", newName)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE profile_snapshots SET name = ? WHERE name = ?", newName, oldName); err != nil {
			return storageErr(err, "rename profile snapshot", oldName)
		}
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM profile_index WHERE name = ?", name)
		if err != nil {
			return storageErr(err, "delete profile index entry", name)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound(name)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM profile_snapshots WHERE name = ?", name); err != nil {
			return storageErr(err, "delete profile snapshot", name)
		}
		return nil
	})
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "begin transaction").Build()
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "commit transaction").Build()
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listNames(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM profile_index ORDER BY position")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query profile index").Build()
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "scan profile index").Build()
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "iterate profile index").Build()
	}
	return names, nil
}

func replaceIndex(ctx context.Context, tx *sql.Tx, names []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM profile_index"); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "clear profile index").Build()
	}
	for i, n := range names {
		if _, err := tx.ExecContext(ctx, "INSERT INTO profile_index (name, position) VALUES (?, ?)", n, i); err != nil {
			return storageErr(err, "insert profile index entry", n)
		}
	}
	return nil
}

func indexed(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM profile_index WHERE name = ?", name).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr(err, "look up profile index", name)
	}
	return true, nil
}

func hasSnapshot(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM profile_snapshots WHERE name = ?", name).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr(err, "look up profile snapshot", name)
	}
	return true, nil
}

func upsertSnapshot(ctx context.Context, tx *sql.Tx, name string, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO profile_snapshots (name, config) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET config = excluded.config`, name, string(payload))
	if err != nil {
		return storageErr(err, "write profile snapshot", name)
	}
	return nil
}

func storageErr(err error, msg, name string) error {
	return errors.WrapError(err, errors.CategoryStorage, msg).WithContext("name", name).Build()
}

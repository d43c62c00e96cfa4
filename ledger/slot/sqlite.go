// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/panoptisDev/zkledger/common"
)

// Entry is a root recorded in the settlement history of a slot.
type Entry struct {
	Seq  uint64      // 0 for the initial root, incremented by every swap
	Root common.Hash
	Time time.Time // time the root was recorded
}

// SQLite is a slot persisted in an SQLite database. Every root ever held by
// the slot is kept in a history table; the current root is the most recent
// one.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS roots (
	seq        INTEGER PRIMARY KEY,
	root       BLOB    NOT NULL,
	created_at INTEGER NOT NULL
)`

// OpenSQLite opens or creates a slot in the SQLite database at the given
// path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open slot database: %w", err)
	}
	// All updates are read-check-write sequences; a single connection
	// serializes them.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create slot schema: %w", err), db.Close())
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context) (common.Hash, bool, error) {
	entry, found, err := latest(ctx, s.db)
	return entry.Root, found, err
}

func (s *SQLite) Initialize(ctx context.Context, root common.Hash) error {
	return s.update(ctx, func(tx *sql.Tx) error {
		_, found, err := latest(ctx, tx)
		if err != nil {
			return err
		}
		if found {
			return ErrInitialized
		}
		return insert(ctx, tx, 0, root)
	})
}

func (s *SQLite) Swap(ctx context.Context, old, next common.Hash) error {
	return s.update(ctx, func(tx *sql.Tx) error {
		current, found, err := latest(ctx, tx)
		if err != nil {
			return err
		}
		if !found {
			return ErrUninitialized
		}
		if current.Root != old {
			return fmt.Errorf("%w: expected %v, found %v", ErrConflict, old, current.Root)
		}
		return insert(ctx, tx, current.Seq+1, next)
	})
}

// History returns all roots recorded by this slot in the order they were
// recorded.
func (s *SQLite) History(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, root, created_at FROM roots ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, entry)
	}
	return res, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) update(ctx context.Context, run func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := run(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func latest(ctx context.Context, db querier) (Entry, bool, error) {
	row := db.QueryRowContext(ctx, `SELECT seq, root, created_at FROM roots ORDER BY seq DESC LIMIT 1`)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func insert(ctx context.Context, tx *sql.Tx, seq uint64, root common.Hash) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO roots (seq, root, created_at) VALUES (?, ?, ?)`,
		seq, root[:], time.Now().UnixNano(),
	)
	return err
}

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var (
		entry   Entry
		root    []byte
		created int64
	)
	if err := row.Scan(&entry.Seq, &root, &created); err != nil {
		return Entry{}, err
	}
	if len(root) != len(common.Hash{}) {
		return Entry{}, fmt.Errorf("invalid root of %d bytes at position %d", len(root), entry.Seq)
	}
	entry.Root = common.Hash(root)
	entry.Time = time.Unix(0, created)
	return entry, nil
}

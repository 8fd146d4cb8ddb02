package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/brunokim/delta/delta"
	_ "modernc.org/sqlite"
)

const createRevisionTable = `CREATE TABLE IF NOT EXISTS revision (
	doc_id     TEXT    NOT NULL,
	rev        INTEGER NOT NULL,
	author     TEXT    NOT NULL,
	change     TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (doc_id, rev)
)`

// SQLite is a Store backed by a SQLite database.
type SQLite struct {
	path  string
	sqlDB *sql.DB
}

// OpenSQLite opens or creates the database at path. The path ":memory:"
// opens a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path == ":memory:" {
		path = "file::memory:"
	}
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if strings.Contains(path, ":memory:") {
		// Each connection would see its own empty database.
		sqlDB.SetMaxOpenConns(1)
	} else if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if _, err := sqlDB.Exec(createRevisionTable); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error creating revision table: %w", err)
	}
	return &SQLite{path: path, sqlDB: sqlDB}, nil
}

func (s *SQLite) Append(ctx context.Context, rev Revision) error {
	change, err := json.Marshal(cloneChange(rev.Change))
	if err != nil {
		return fmt.Errorf("error marshaling change: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	head, err := queryHead(ctx, tx, rev.DocID)
	if err != nil {
		return err
	}
	if rev.Rev != head+1 {
		return fmt.Errorf("%w: appending %d to %q at %d", ErrConflict, rev.Rev, rev.DocID, head)
	}

	resultedSQL, args, err := sq.
		Insert("revision").
		Columns("doc_id", "rev", "author", "change", "created_at").
		Values(rev.DocID, rev.Rev, rev.Author, string(change), rev.Time.UnixMilli()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, resultedSQL, args...); err != nil {
		return fmt.Errorf("error inserting revision %d of %q: %w", rev.Rev, rev.DocID, err)
	}
	return tx.Commit()
}

func (s *SQLite) Range(ctx context.Context, docID string, from, to int) ([]Revision, error) {
	if from > to {
		return nil, nil
	}
	resultedSQL, args, err := sq.
		Select("doc_id", "rev", "author", "change", "created_at").
		From("revision").
		Where(sq.Eq{"doc_id": docID}).
		Where(sq.GtOrEq{"rev": from}).
		Where(sq.LtOrEq{"rev": to}).
		OrderBy("rev ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, resultedSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var rev Revision
		var change string
		var createdAt int64
		if err := rows.Scan(&rev.DocID, &rev.Rev, &rev.Author, &change, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning revision: %w", err)
		}
		rev.Change = delta.New()
		if err := json.Unmarshal([]byte(change), rev.Change); err != nil {
			return nil, fmt.Errorf("error unmarshaling revision %d of %q: %w", rev.Rev, docID, err)
		}
		rev.Time = time.UnixMilli(createdAt).UTC()
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(revs) != to-from+1 {
		return nil, fmt.Errorf("%w: %q has %d of revisions %d..%d", ErrNotFound, docID, len(revs), from, to)
	}
	return revs, nil
}

func (s *SQLite) Head(ctx context.Context, docID string) (int, error) {
	return queryHead(ctx, s.sqlDB, docID)
}

func (s *SQLite) Close() error {
	return s.sqlDB.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryHead(ctx context.Context, db queryer, docID string) (int, error) {
	resultedSQL, args, err := sq.
		Select("COALESCE(MAX(rev), 0)").
		From("revision").
		Where(sq.Eq{"doc_id": docID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var rev int
	err = db.QueryRowContext(ctx, resultedSQL, args...).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error reading head of %q: %w", docID, err)
	}
	return rev, nil
}

var _ Store = (*SQLite)(nil)

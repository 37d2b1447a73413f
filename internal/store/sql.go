package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// sqlStore implements Store on top of database/sql. SQLite and Postgres
// share the queries and differ only in placeholders and column types.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

func (s *sqlStore) migrate(ctx context.Context) error {
	valueType := "BLOB"
	if s.dialect == dialectPostgres {
		valueType = "BYTEA"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS kv_documents (
	doc_key TEXT PRIMARY KEY,
	doc_value %s NOT NULL,
	version BIGINT NOT NULL
)`, valueType)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// rebind rewrites '?' placeholders to $n for Postgres.
func (s *sqlStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Get(ctx context.Context, key string) (Record, error) {
	var rec Record
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT doc_value, version FROM kv_documents WHERE doc_key = ?`), key)
	if err := row.Scan(&rec.Value, &rec.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return rec, nil
}

func (s *sqlStore) Put(ctx context.Context, key string, value []byte, expectVersion int64) (int64, error) {
	var (
		res sql.Result
		err error
	)
	next := expectVersion + 1
	if expectVersion == 0 {
		res, err = s.db.ExecContext(ctx,
			s.rebind(`INSERT INTO kv_documents (doc_key, doc_value, version) VALUES (?, ?, ?) ON CONFLICT (doc_key) DO NOTHING`),
			key, value, next)
	} else {
		res, err = s.db.ExecContext(ctx,
			s.rebind(`UPDATE kv_documents SET doc_value = ?, version = ? WHERE doc_key = ? AND version = ?`),
			value, next, key, expectVersion)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", key, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrVersionConflict
	}
	return next, nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM kv_documents WHERE doc_key = ?`), key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

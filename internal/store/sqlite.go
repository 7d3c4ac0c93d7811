package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS batches (
	id           TEXT PRIMARY KEY,
	file_name    TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'uploaded',
	records      TEXT NOT NULL,
	outcomes     TEXT NOT NULL,
	error        TEXT,
	created_at   DATETIME NOT NULL,
	started_at   DATETIME,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status);
CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBatch(ctx context.Context, b *model.Batch) error {
	recordsJSON, outcomesJSON, err := marshalBatch(b)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batches (id, file_name, status, records, outcomes, error, created_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.FileName, string(b.Status), recordsJSON, outcomesJSON,
		nullString(b.Error), b.CreatedAt, nullTime(b.StartedAt), nullTime(b.CompletedAt),
	)
	return eris.Wrapf(err, "sqlite: insert batch %s", b.ID)
}

func (s *SQLiteStore) PutBatch(ctx context.Context, b *model.Batch) error {
	recordsJSON, outcomesJSON, err := marshalBatch(b)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE batches SET file_name = ?, status = ?, records = ?, outcomes = ?, error = ?, started_at = ?, completed_at = ?
		 WHERE id = ?`,
		b.FileName, string(b.Status), recordsJSON, outcomesJSON,
		nullString(b.Error), nullTime(b.StartedAt), nullTime(b.CompletedAt), b.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update batch %s", b.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (*model.Batch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, status, records, outcomes, error, created_at, started_at, completed_at
		 FROM batches WHERE id = ?`,
		id,
	)
	return scanBatch(row)
}

func (s *SQLiteStore) ListBatches(ctx context.Context, filter BatchFilter) ([]model.Batch, error) {
	query := `SELECT id, file_name, status, records, outcomes, error, created_at, started_at, completed_at
	          FROM batches WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close()

	var batches []model.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	return batches, eris.Wrap(rows.Err(), "sqlite: list batches iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func marshalBatch(b *model.Batch) (string, string, error) {
	recordsJSON, err := json.Marshal(b.Records)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal records")
	}
	outcomesJSON, err := json.Marshal(b.Outcomes)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal outcomes")
	}
	return string(recordsJSON), string(outcomesJSON), nil
}

func scanBatch(row scannable) (*model.Batch, error) {
	var b model.Batch
	var status string
	var recordsJSON, outcomesJSON string
	var errMsg sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&b.ID, &b.FileName, &status, &recordsJSON, &outcomesJSON,
		&errMsg, &b.CreatedAt, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan batch")
	}

	b.Status = model.BatchStatus(status)
	if errMsg.Valid {
		b.Error = errMsg.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		b.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		b.CompletedAt = &t
	}
	if err := json.Unmarshal([]byte(recordsJSON), &b.Records); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal records")
	}
	if err := json.Unmarshal([]byte(outcomesJSON), &b.Outcomes); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal outcomes")
	}
	return &b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

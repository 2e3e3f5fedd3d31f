// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/minlog/lib/dispatch"
	"github.com/bureau-foundation/minlog/lib/metric"
	"github.com/bureau-foundation/minlog/lib/sqlitepool"
	"github.com/bureau-foundation/minlog/lib/typedef"
)

// DefaultBatchSize is the number of buffered events that triggers a
// write.
const DefaultBatchSize = 256

const defaultQueryLimit = 100

const schema = `
CREATE TABLE IF NOT EXISTS logs (
	id          INTEGER PRIMARY KEY,
	timestamp   REAL    NOT NULL,
	thread_id   INTEGER NOT NULL,
	thread      TEXT    NOT NULL,
	metric_id   INTEGER NOT NULL,
	severity    INTEGER NOT NULL,
	label       TEXT    NOT NULL,
	source_file TEXT    NOT NULL,
	source_line INTEGER NOT NULL,
	message     TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS logs_timestamp ON logs (timestamp);
CREATE INDEX IF NOT EXISTS logs_severity ON logs (severity);

CREATE TABLE IF NOT EXISTS vals (
	id        INTEGER PRIMARY KEY,
	timestamp REAL    NOT NULL,
	thread_id INTEGER NOT NULL,
	thread    TEXT    NOT NULL,
	metric_id INTEGER NOT NULL,
	name      TEXT    NOT NULL,
	value     TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS vals_name ON vals (name, timestamp);

CREATE TABLE IF NOT EXISTS slices (
	id        INTEGER PRIMARY KEY,
	timestamp REAL    NOT NULL,
	thread_id INTEGER NOT NULL,
	thread    TEXT    NOT NULL,
	metric_id INTEGER NOT NULL,
	name      TEXT    NOT NULL,
	phase     TEXT    NOT NULL CHECK (phase IN ('begin', 'end'))
);

CREATE TABLE IF NOT EXISTS threads (
	thread_id INTEGER PRIMARY KEY,
	name      TEXT NOT NULL,
	timestamp REAL NOT NULL
);
`

// Config holds the parameters for Open.
type Config struct {
	// Path is the database file. Missing parent directories are
	// created unless ReadOnly is set.
	Path string

	// BatchSize is the number of events buffered before a write.
	// Defaults to DefaultBatchSize.
	BatchSize int

	// ReadOnly opens an existing store for queries only. Handle fails
	// on a read-only store.
	ReadOnly bool

	// Logger receives operational messages. Nil discards them.
	Logger *slog.Logger
}

// Store is a SQLite-backed event sink. Handle and Close follow the
// dispatch.Sink contract (single goroutine); the query methods are safe
// for concurrent use.
type Store struct {
	pool      *sqlitepool.Pool
	logger    *slog.Logger
	batchSize int
	readOnly  bool
	pending   []dispatch.Event
	written   int
}

// LogFilter selects log rows. Zero fields do not filter.
type LogFilter struct {
	// MinSeverity keeps rows with severity >= MinSeverity.
	MinSeverity metric.Severity

	// Search keeps rows whose message contains Search.
	Search string

	// Limit caps the result count. Defaults to 100.
	Limit int
}

// LogRecord is one row of the logs table.
type LogRecord struct {
	Timestamp  float64         `json:"timestamp"`
	ThreadID   uint8           `json:"thread_id"`
	Thread     string          `json:"thread"`
	MetricID   uint32          `json:"metric_id"`
	Severity   metric.Severity `json:"severity"`
	Label      string          `json:"label"`
	SourceFile string          `json:"source_file"`
	SourceLine int             `json:"source_line"`
	Message    string          `json:"message"`
}

// ValueRecord is one row of the vals table. Value is the JSON encoding
// of the decoded value.
type ValueRecord struct {
	Timestamp float64         `json:"timestamp"`
	ThreadID  uint8           `json:"thread_id"`
	Thread    string          `json:"thread"`
	MetricID  uint32          `json:"metric_id"`
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
}

// Open opens or creates the store at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("eventstore: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if cfg.ReadOnly {
		if _, err := os.Stat(cfg.Path); err != nil {
			return nil, fmt.Errorf("eventstore: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("eventstore: %w", err)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		ReadOnly: cfg.ReadOnly,
		Schema:   schema,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("eventstore: %w", err)
	}

	return &Store{
		pool:      pool,
		logger:    logger,
		batchSize: batchSize,
		readOnly:  cfg.ReadOnly,
	}, nil
}

// Handle buffers the event and writes the buffer once it reaches the
// batch size.
func (s *Store) Handle(event dispatch.Event) error {
	if s.readOnly {
		return fmt.Errorf("eventstore: store %s is read-only", s.pool.Path())
	}
	if event.Kind == dispatch.EventRaw {
		return nil
	}
	s.pending = append(s.pending, event)
	if len(s.pending) >= s.batchSize {
		return s.Flush(context.Background())
	}
	return nil
}

// Flush writes all buffered events in one transaction.
func (s *Store) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	err := s.pool.Transaction(ctx, func(conn *sqlite.Conn) error {
		for i := range s.pending {
			if err := insertEvent(conn, &s.pending[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("eventstore: writing %d events: %w", len(s.pending), err)
	}
	s.written += len(s.pending)
	s.pending = s.pending[:0]
	return nil
}

// Close flushes buffered events and closes the database.
func (s *Store) Close() error {
	flushErr := s.Flush(context.Background())
	if s.written > 0 {
		s.logger.Info("event store written", "path", s.pool.Path(), "events", s.written)
	}
	closeErr := s.pool.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func insertEvent(conn *sqlite.Conn, event *dispatch.Event) error {
	switch event.Kind {
	case dispatch.EventLog:
		return sqlitex.Execute(conn, `INSERT INTO logs
			(timestamp, thread_id, thread, metric_id, severity, label,
			 source_file, source_line, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{
				event.Timestamp,
				int(event.ThreadID),
				event.Thread,
				int64(event.MetricID),
				int(event.Level),
				event.Label(),
				event.SourceFile,
				event.SourceLine,
				event.Message,
			},
		})

	case dispatch.EventValue:
		valueJSON, err := encodeValue(event.Value)
		if err != nil {
			return fmt.Errorf("encoding value %s: %w", event.Name, err)
		}
		return sqlitex.Execute(conn, `INSERT INTO vals
			(timestamp, thread_id, thread, metric_id, name, value)
			VALUES (?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{
				event.Timestamp,
				int(event.ThreadID),
				event.Thread,
				int64(event.MetricID),
				event.Name,
				valueJSON,
			},
		})

	case dispatch.EventSliceBegin, dispatch.EventSliceEnd:
		phase := "begin"
		if event.Kind == dispatch.EventSliceEnd {
			phase = "end"
		}
		return sqlitex.Execute(conn, `INSERT INTO slices
			(timestamp, thread_id, thread, metric_id, name, phase)
			VALUES (?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{
				event.Timestamp,
				int(event.ThreadID),
				event.Thread,
				int64(event.MetricID),
				event.Name,
				phase,
			},
		})

	case dispatch.EventThreadName:
		return sqlitex.Execute(conn, `INSERT INTO threads (thread_id, name, timestamp)
			VALUES (?, ?, ?)
			ON CONFLICT (thread_id) DO UPDATE SET name = excluded.name, timestamp = excluded.timestamp`,
			&sqlitex.ExecOptions{
				Args: []any{int(event.ThreadID), event.Thread, event.Timestamp},
			})
	}
	return nil
}

// encodeValue renders a decoded value as JSON. Floats JSON cannot carry
// (NaN, infinities) are stored as strings.
func encodeValue(value typedef.Value) (string, error) {
	if value == nil {
		return "null", nil
	}
	data, err := json.Marshal(value.Native())
	if err != nil {
		data, err = json.Marshal(value.String())
		if err != nil {
			return "", err
		}
	}
	return string(data), nil
}

// QueryLogs returns log rows matching filter, newest first.
func (s *Store) QueryLogs(ctx context.Context, filter LogFilter) ([]LogRecord, error) {
	var conditions []string
	var args []any

	if filter.MinSeverity > 0 {
		conditions = append(conditions, "severity >= ?")
		args = append(args, int(filter.MinSeverity))
	}
	if filter.Search != "" {
		conditions = append(conditions, `message LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	query := "SELECT timestamp, thread_id, thread, metric_id, severity, label, " +
		"source_file, source_line, message FROM logs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limitOrDefault(filter.Limit))

	var records []LogRecord
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				// Columns: timestamp(0), thread_id(1), thread(2),
				// metric_id(3), severity(4), label(5), source_file(6),
				// source_line(7), message(8)
				records = append(records, LogRecord{
					Timestamp:  stmt.ColumnFloat(0),
					ThreadID:   uint8(stmt.ColumnInt(1)),
					Thread:     stmt.ColumnText(2),
					MetricID:   uint32(stmt.ColumnInt64(3)),
					Severity:   metric.Severity(stmt.ColumnInt(4)),
					Label:      stmt.ColumnText(5),
					SourceFile: stmt.ColumnText(6),
					SourceLine: stmt.ColumnInt(7),
					Message:    stmt.ColumnText(8),
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("eventstore: query logs: %w", err)
	}
	return records, nil
}

// QueryValues returns the most recent rows recorded under name, newest
// first.
func (s *Store) QueryValues(ctx context.Context, name string, limit int) ([]ValueRecord, error) {
	var records []ValueRecord
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT timestamp, thread_id, thread, metric_id, name, value
			FROM vals WHERE name = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, &sqlitex.ExecOptions{
			Args: []any{name, limitOrDefault(limit)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				records = append(records, ValueRecord{
					Timestamp: stmt.ColumnFloat(0),
					ThreadID:  uint8(stmt.ColumnInt(1)),
					Thread:    stmt.ColumnText(2),
					MetricID:  uint32(stmt.ColumnInt64(3)),
					Name:      stmt.ColumnText(4),
					Value:     json.RawMessage(stmt.ColumnText(5)),
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("eventstore: query values: %w", err)
	}
	return records, nil
}

// Threads returns the stored thread names by id.
func (s *Store) Threads(ctx context.Context) (map[uint8]string, error) {
	threads := make(map[uint8]string)
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT thread_id, name FROM threads", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				threads[uint8(stmt.ColumnInt(0))] = stmt.ColumnText(1)
				return nil
			},
		})
	})
	if err != nil {
		return nil, fmt.Errorf("eventstore: query threads: %w", err)
	}
	return threads, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultQueryLimit
	}
	return limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}

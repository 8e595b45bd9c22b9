package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrUnparsable is returned for commands that are not a sensor log insert.
var ErrUnparsable = errors.New("not a sensor log insert")

var insertPattern = regexp.MustCompile(
	`^insert into homekit\.(\w+) \((\w+), (\w+)\) values \('((?:[^']|'')*)', (-?[0-9]+(?:\.[0-9]+)?)\)$`)

// Row is one received log row.
type Row struct {
	ID         int64
	ReceivedAt time.Time
	Table      string
	Accessory  string
	Value      float64
	Command    string
}

// ParseCommand extracts the row from a rendered insert statement. Only the
// fixed statement shape is accepted; nothing is executed.
func ParseCommand(command string) (Row, error) {
	stmt := strings.TrimPrefix(command, "sql=")
	m := insertPattern.FindStringSubmatch(stmt)
	if m == nil {
		return Row{Command: command}, ErrUnparsable
	}
	v, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return Row{Command: command}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return Row{
		Table:     m[1],
		Accessory: strings.ReplaceAll(m[4], "''", "'"),
		Value:     v,
		Command:   command,
	}, nil
}

// Store keeps received rows in SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens the database at path. Use ":memory:" for an in-memory database.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS received (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		received_at DATETIME NOT NULL,
		tbl TEXT,
		accessory TEXT,
		value REAL,
		command TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_received_tbl ON received(tbl);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores r. An empty Table stores the raw command only.
func (s *Store) Insert(r Row) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tbl, acc sql.NullString
	var val sql.NullFloat64
	if r.Table != "" {
		tbl = sql.NullString{String: r.Table, Valid: true}
		acc = sql.NullString{String: r.Accessory, Valid: true}
		val = sql.NullFloat64{Float64: r.Value, Valid: true}
	}
	res, err := s.db.Exec(
		`INSERT INTO received (received_at, tbl, accessory, value, command) VALUES (?, ?, ?, ?, ?)`,
		r.ReceivedAt.UTC(), tbl, acc, val, r.Command)
	if err != nil {
		return 0, fmt.Errorf("failed to insert row: %w", err)
	}
	return res.LastInsertId()
}

// Rows returns the newest rows first, optionally limited to one table.
// limit <= 0 returns all rows.
func (s *Store) Rows(table string, limit int) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, received_at, tbl, accessory, value, command FROM received`
	var args []any
	if table != "" {
		query += ` WHERE tbl = ?`
		args = append(args, table)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var tbl, acc sql.NullString
		var val sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.ReceivedAt, &tbl, &acc, &val, &r.Command); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Table, r.Accessory, r.Value = tbl.String, acc.String, val.Float64
		out = append(out, r)
	}
	return out, rows.Err()
}

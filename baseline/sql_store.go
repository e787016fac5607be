package baseline

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"

	"github.com/cellwire/gologic/state"
)

// SQLStore is a Store backed by database/sql, over either MySQL or
// SQLite3 depending on which driver name it was opened with.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens driver (one of "mysql", "sqlite3") with dsn and
// ensures the backing table exists.
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, state.Wrap("NewSQLStore", state.Io, "opening database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, state.Wrap("NewSQLStore", state.Io, "connecting to database", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS baseline_snapshots (
		name       VARCHAR(255) PRIMARY KEY,
		created_at DATETIME NOT NULL,
		wires_json TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, state.Wrap("NewSQLStore", state.Io, "creating baseline_snapshots table", err)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// Close releases the underlying database connection. Registered with
// atexit by cmd/gologicsim so it runs when the program ends through
// atexit.Exit, including on an error exit.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.Name == "" {
		snap.Name = xid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	blob, err := json.Marshal(snap.Wires)
	if err != nil {
		return state.Wrap("Save", state.MalformedFormat, "encoding snapshot wires", err)
	}
	upsert := `INSERT INTO baseline_snapshots (name, created_at, wires_json) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET created_at = excluded.created_at, wires_json = excluded.wires_json`
	if s.driver == "mysql" {
		upsert = `INSERT INTO baseline_snapshots (name, created_at, wires_json) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE created_at = VALUES(created_at), wires_json = VALUES(wires_json)`
	}
	if _, err := s.db.ExecContext(ctx, upsert, snap.Name, snap.CreatedAt, string(blob)); err != nil {
		return state.Wrap("Save", state.Io, "writing snapshot", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, name string) (Snapshot, error) {
	const query = `SELECT created_at, wires_json FROM baseline_snapshots WHERE name = ?`
	row := s.db.QueryRowContext(ctx, query, name)
	var createdAt time.Time
	var blob string
	if err := row.Scan(&createdAt, &blob); err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, state.NewError("Load", state.InvalidArgument, "no baseline named "+name)
		}
		return Snapshot{}, state.Wrap("Load", state.Io, "reading snapshot", err)
	}
	wires := make(map[string]string)
	if err := json.Unmarshal([]byte(blob), &wires); err != nil {
		return Snapshot{}, state.Wrap("Load", state.MalformedFormat, "decoding snapshot wires", err)
	}
	return Snapshot{Name: name, CreatedAt: createdAt, Wires: wires}, nil
}

func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM baseline_snapshots ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, state.Wrap("List", state.Io, "listing snapshots", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, state.Wrap("List", state.Io, "scanning snapshot name", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

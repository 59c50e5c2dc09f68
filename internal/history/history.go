// internal/history/history.go
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Tubbz-alt/pabv-control/internal/params"
)

// Entry is one accepted configuration change.
type Entry struct {
	At       time.Time
	DeviceID string
	Serial   uint32
	Sources  []string
	Params   params.Parameters
}

// Recorder persists entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

const createTable = `
CREATE TABLE IF NOT EXISTS config_history (
	id           BIGSERIAL PRIMARY KEY,
	recorded_at  TIMESTAMPTZ NOT NULL,
	device_id    TEXT NOT NULL,
	serial       BIGINT NOT NULL,
	sources      TEXT[] NOT NULL,
	resp_rate    REAL NOT NULL,
	inh_time     REAL NOT NULL,
	pip_max      REAL NOT NULL,
	pip_offset   REAL NOT NULL,
	vol_max      REAL NOT NULL,
	vol_factor   REAL NOT NULL,
	vol_in_thold REAL NOT NULL,
	peep_min     REAL NOT NULL,
	run_state    SMALLINT NOT NULL,
	run_mode     SMALLINT NOT NULL
)`

const insertEntry = `
INSERT INTO config_history (
	recorded_at, device_id, serial, sources,
	resp_rate, inh_time, pip_max, pip_offset, vol_max, vol_factor, vol_in_thold, peep_min,
	run_state, run_mode
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// PostgresRecorder writes entries to the config_history table.
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder connects, verifies connectivity and creates the table.
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	db.SetMaxOpenConns(2)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}
	return &PostgresRecorder{db: db}, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, insertEntry, insertArgs(e)...)
	if err != nil {
		return fmt.Errorf("history: insert serial %d: %w", e.Serial, err)
	}
	return nil
}

func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}

func insertArgs(e Entry) []any {
	p := e.Params
	sources := e.Sources
	if sources == nil {
		sources = []string{}
	}
	return []any{
		e.At.UTC(), e.DeviceID, int64(e.Serial), pq.Array(sources),
		p.RespRate, p.InhTime, p.PipMax, p.PipOffset, p.VolMax, p.VolFactor, p.VolInThold, p.PeepMin,
		int16(p.RunState), int16(p.RunMode),
	}
}

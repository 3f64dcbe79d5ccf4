// Package storage is the optional PostgreSQL history sink: it listens
// on the event bus and records first-sighting/last-sighting rows for
// each aircraft, using jmoiron/sqlx over lib/pq with sqldb-logger
// wired in for query tracing, the way this corpus's persistence layer
// is built (ClickHouse is the teacher's equivalent concern for a
// different backend; here Postgres is the simpler fit for a
// low-volume lifecycle log rather than a high-volume timeseries).
package storage

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"

	"atctrace/internal/bus"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS aircraft_sightings (
	id          BIGSERIAL PRIMARY KEY,
	icao        TEXT NOT NULL,
	callsign    TEXT NOT NULL DEFAULT '',
	event       TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
)`

// HistorySink persists aircraft lifecycle events to PostgreSQL.
type HistorySink struct {
	db *sqlx.DB
}

// NewHistorySink opens dsn and ensures the sightings table exists.
func NewHistorySink(dsn string) (*HistorySink, error) {
	rawDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	logged := sqldblogger.OpenDriver(dsn, rawDB.Driver(), zerologadapter.New(log.Logger))
	db := sqlx.NewDb(logged, "postgres")

	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, err
	}
	return &HistorySink{db: db}, nil
}

// Subscribe drains events and inserts one row per AircraftSeen/Lost
// notification until the channel closes.
func (h *HistorySink) Subscribe(events <-chan bus.Event) {
	go func() {
		for e := range events {
			h.record(e)
		}
	}()
}

func (h *HistorySink) record(e bus.Event) {
	_, _ = h.db.Exec(
		`INSERT INTO aircraft_sightings (icao, callsign, event, occurred_at) VALUES ($1, $2, $3, $4)`,
		icaoHex(e.Icao), e.Callsign, e.Kind.String(), e.At.UTC(),
	)
}

func icaoHex(icao uint32) string {
	const hexdigits = "0123456789ABCDEF"
	b := [6]byte{}
	v := icao
	for i := 5; i >= 0; i-- {
		b[i] = hexdigits[v&0xF]
		v >>= 4
	}
	return string(b[:])
}

// Close releases the underlying database connection pool.
func (h *HistorySink) Close() error {
	return h.db.Close()
}

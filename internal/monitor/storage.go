package monitor

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	session   TEXT    NOT NULL,
	worker    TEXT    NOT NULL,
	type      TEXT    NOT NULL,
	epoch     INTEGER NOT NULL,
	iteration INTEGER NOT NULL,
	score     REAL    NOT NULL,
	metrics   TEXT,
	time      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_session ON reports (session, id);
`

// Session summarizes the reports received for one training session.
type Session struct {
	ID      string    `json:"id"`
	Worker  string    `json:"worker"`
	Reports int       `json:"reports"`
	Epoch   int       `json:"epoch"`
	Last    time.Time `json:"last"`
}

// Storage keeps reports in a SQLite database.
type Storage struct {
	db *sql.DB
}

// OpenStorage opens or creates the database at path. ":memory:" keeps
// everything in memory.
func OpenStorage(path string) (*Storage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create storage folder")
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open storage")
	}
	// one connection, so an in-memory database is shared by all queries
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Put stores one report.
func (s *Storage) Put(r Report) error {
	var metrics []byte
	if len(r.Metrics) > 0 {
		var err error
		if metrics, err = json.Marshal(r.Metrics); err != nil {
			return errors.Wrap(err, "encode metrics")
		}
	}
	_, err := s.db.Exec(
		`INSERT INTO reports (session, worker, type, epoch, iteration, score, metrics, time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Session, r.Worker, string(r.Type), r.Epoch, r.Iteration, r.Score, string(metrics), r.Time.UnixNano())
	return errors.Wrap(err, "insert report")
}

// Sessions lists all sessions, most recently updated first.
func (s *Storage) Sessions() ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT session, MAX(worker), COUNT(*), MAX(epoch), MAX(time)
		 FROM reports GROUP BY session ORDER BY MAX(time) DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "query sessions")
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var ss Session
		var last int64
		if err := rows.Scan(&ss.ID, &ss.Worker, &ss.Reports, &ss.Epoch, &last); err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		ss.Last = time.Unix(0, last)
		sessions = append(sessions, ss)
	}
	return sessions, errors.Wrap(rows.Err(), "query sessions")
}

// Reports returns the reports of session in arrival order. An empty types
// list returns all types.
func (s *Storage) Reports(session string, types ...ReportType) ([]Report, error) {
	rows, err := s.db.Query(
		`SELECT worker, type, epoch, iteration, score, metrics, time
		 FROM reports WHERE session = ? ORDER BY id`, session)
	if err != nil {
		return nil, errors.Wrap(err, "query reports")
	}
	defer rows.Close()

	want := make(map[ReportType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var reports []Report
	for rows.Next() {
		r := Report{Session: session}
		var typ string
		var metrics sql.NullString
		var ts int64
		if err := rows.Scan(&r.Worker, &typ, &r.Epoch, &r.Iteration, &r.Score, &metrics, &ts); err != nil {
			return nil, errors.Wrap(err, "scan report")
		}
		r.Type = ReportType(typ)
		if len(want) > 0 && !want[r.Type] {
			continue
		}
		r.Time = time.Unix(0, ts)
		if metrics.Valid && metrics.String != "" {
			if err := json.Unmarshal([]byte(metrics.String), &r.Metrics); err != nil {
				return nil, errors.Wrap(err, "decode metrics")
			}
		}
		reports = append(reports, r)
	}
	return reports, errors.Wrap(rows.Err(), "query reports")
}

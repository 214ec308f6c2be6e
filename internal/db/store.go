package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		doctor TEXT NOT NULL,
		specialization TEXT NOT NULL,
		patient TEXT NOT NULL,
		startedAt REAL NOT NULL,
		endedAt REAL,
		status TEXT NOT NULL DEFAULT 'active',
		reason TEXT,
		transcriptPath TEXT NOT NULL,
		resultPath TEXT,
		reportPath TEXT,
		createdAt REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_startedAt ON sessions(startedAt);
`

const sessionColumns = `id, doctor, specialization, patient, startedAt, endedAt, status,
	reason, transcriptPath, resultPath, reportPath, createdAt`

// Store provides access to the session journal.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the journal path inside the data directory.
func DefaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, "scribe.sqlite")
}

// Open opens (creating if needed) the journal database with WAL.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertSession journals a newly started session.
func (s *Store) InsertSession(sess Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, doctor, specialization, patient, startedAt, status, transcriptPath, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Doctor, sess.Specialization, sess.Patient,
		unixFromTime(sess.StartedAt), StatusActive, sess.TranscriptPath, unixFromTime(time.Now()))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FinishSession records the terminal outcome of a session.
func (s *Store) FinishSession(id string, out Outcome) error {
	res, err := s.db.Exec(`
		UPDATE sessions
		SET status = ?, reason = ?, resultPath = ?, reportPath = ?, endedAt = ?
		WHERE id = ?
	`, out.Status, nullString(out.Reason), nullString(out.ResultPath), nullString(out.ReportPath),
		unixFromTime(out.EndedAt), id)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish session: %s not found", id)
	}
	return nil
}

// Session returns a session by id, or nil if none exists.
func (s *Store) Session(id string) (*Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// LatestSession returns the most recent session regardless of status.
func (s *Store) LatestSession() (*Session, error) {
	row := s.db.QueryRow(`SELECT ` + sessionColumns + ` FROM sessions ORDER BY startedAt DESC LIMIT 1`)
	return scanSession(row)
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+sessionColumns+` FROM sessions ORDER BY startedAt DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var startedAt, createdAt float64
	var endedAt sql.NullFloat64
	var reason, resultPath, reportPath sql.NullString

	if err := row.Scan(&sess.ID, &sess.Doctor, &sess.Specialization, &sess.Patient,
		&startedAt, &endedAt, &sess.Status, &reason, &sess.TranscriptPath,
		&resultPath, &reportPath, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	sess.StartedAt = timeFromUnix(startedAt)
	sess.CreatedAt = timeFromUnix(createdAt)
	if endedAt.Valid {
		t := timeFromUnix(endedAt.Float64)
		sess.EndedAt = &t
	}
	sess.Reason = reason.String
	sess.ResultPath = resultPath.String
	sess.ReportPath = reportPath.String
	return &sess, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

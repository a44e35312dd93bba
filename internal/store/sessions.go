package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Session statuses.
const (
	StatusOpen    = "open"
	StatusClosed  = "closed"
	StatusAborted = "aborted"
)

type Session struct {
	ID         string
	LogDir     string
	SubmitUser string
	SubmitHost string
	Command    string
	StartTime  int64
	Status     string
	CreatedAt  time.Time
	ClosedAt   *time.Time
}

func (s *Store) CreateSession(sess *Session) error {
	_, err := s.db.Exec(`INSERT INTO sessions (id, log_dir, submituser, submithost, command, start_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.LogDir, sess.SubmitUser, sess.SubmitHost, sess.Command, sess.StartTime, StatusOpen)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SetStatus moves a session to the given status; closed and aborted
// sessions get a closed_at stamp.
func (s *Store) SetStatus(id, status string) error {
	var res sql.Result
	var err error
	if status == StatusOpen {
		res, err = s.db.Exec(`UPDATE sessions SET status = ?, closed_at = NULL WHERE id = ?`, status, id)
	} else {
		res, err = s.db.Exec(`UPDATE sessions SET status = ?, closed_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	}
	if err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set session status: no session %s", id)
	}
	return nil
}

// FindByDir returns the session indexed under the given log directory,
// or nil if the directory was never indexed (e.g. created before the
// index existed).
func (s *Store) FindByDir(logDir string) (*Session, error) {
	row := s.db.QueryRow(`SELECT id, log_dir, submituser, submithost, command, start_time, status, created_at, closed_at
		FROM sessions WHERE log_dir = ?`, logDir)
	sess := &Session{}
	err := row.Scan(&sess.ID, &sess.LogDir, &sess.SubmitUser, &sess.SubmitHost,
		&sess.Command, &sess.StartTime, &sess.Status, &sess.CreatedAt, &sess.ClosedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session by dir: %w", err)
	}
	return sess, nil
}

func (s *Store) ListSessions() ([]*Session, error) {
	rows, err := s.db.Query(`SELECT id, log_dir, submituser, submithost, command, start_time, status, created_at, closed_at
		FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		if err := rows.Scan(&sess.ID, &sess.LogDir, &sess.SubmitUser, &sess.SubmitHost,
			&sess.Command, &sess.StartTime, &sess.Status, &sess.CreatedAt, &sess.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

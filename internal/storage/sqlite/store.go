// Package sqlite provides a SQLite-backed storage.Store implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/calebmorrow/daylight/backend/internal/model/escalation"
	"github.com/calebmorrow/daylight/backend/internal/model/report"
	"github.com/calebmorrow/daylight/backend/internal/model/session"
	"github.com/calebmorrow/daylight/backend/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  child_id TEXT NOT NULL,
  observer_id TEXT NOT NULL,
  status TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  ended_at INTEGER,
  duration_minutes INTEGER NOT NULL DEFAULT 0,
  mood_observed TEXT NOT NULL DEFAULT '',
  engagement_level TEXT NOT NULL DEFAULT '',
  key_observations TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sessions_observer_started ON sessions (observer_id, started_at);
CREATE INDEX IF NOT EXISTS idx_sessions_child_status ON sessions (child_id, status);

CREATE TABLE IF NOT EXISTS daily_reports (
  id TEXT PRIMARY KEY,
  child_id TEXT NOT NULL,
  observer_id TEXT NOT NULL,
  session_id TEXT NOT NULL DEFAULT '',
  report_date TEXT NOT NULL,
  session_summary TEXT NOT NULL,
  child_mood TEXT NOT NULL,
  engagement_level TEXT NOT NULL,
  key_observations TEXT NOT NULL,
  concerns TEXT NOT NULL DEFAULT '',
  positive_moments TEXT NOT NULL DEFAULT '',
  recommendations TEXT NOT NULL DEFAULT '',
  review_status TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_observer_created ON daily_reports (observer_id, created_at);
CREATE INDEX IF NOT EXISTS idx_reports_session ON daily_reports (session_id);

CREATE TABLE IF NOT EXISTS escalations (
  id TEXT PRIMARY KEY,
  child_id TEXT NOT NULL,
  observer_id TEXT NOT NULL,
  session_id TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL,
  severity TEXT NOT NULL,
  description TEXT NOT NULL,
  observed_behaviors TEXT NOT NULL,
  immediate_actions_taken TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  resolution TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_escalations_observer_created ON escalations (observer_id, created_at);
`

// Store persists check-in state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateSession inserts one session record.
func (s *Store) CreateSession(ctx context.Context, sess session.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var endedAt any
	if !sess.EndedAt.IsZero() {
		endedAt = toMillis(sess.EndedAt)
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (
		   id, child_id, observer_id, status, started_at, ended_at,
		   duration_minutes, mood_observed, engagement_level, key_observations, notes
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.ChildID,
		sess.ObserverID,
		string(sess.Status),
		toMillis(sess.StartedAt),
		endedAt,
		sess.DurationMinutes,
		sess.MoodObserved,
		sess.EngagementLevel,
		sess.KeyObservations,
		sess.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by identifier.
func (s *Store) GetSession(ctx context.Context, id string) (session.Session, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, child_id, observer_id, status, started_at, ended_at,
		        duration_minutes, mood_observed, engagement_level, key_observations, notes
		   FROM sessions WHERE id = ?`,
		id,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, storage.ErrSessionNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("select session: %w", err)
	}
	return sess, nil
}

// UpdateSession replaces the mutable fields of a stored session.
func (s *Store) UpdateSession(ctx context.Context, sess session.Session) error {
	var endedAt any
	if !sess.EndedAt.IsZero() {
		endedAt = toMillis(sess.EndedAt)
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions SET
		   status = ?, ended_at = ?, duration_minutes = ?,
		   mood_observed = ?, engagement_level = ?, key_observations = ?, notes = ?
		 WHERE id = ?`,
		string(sess.Status),
		endedAt,
		sess.DurationMinutes,
		sess.MoodObserved,
		sess.EngagementLevel,
		sess.KeyObservations,
		sess.Notes,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrSessionNotFound
	}
	return nil
}

// ListSessionsByObserverDay returns the observer's sessions for one UTC day.
func (s *Store) ListSessionsByObserverDay(ctx context.Context, observerID string, day time.Time) ([]session.Session, error) {
	start, end := storage.DayWindow(day)
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, child_id, observer_id, status, started_at, ended_at,
		        duration_minutes, mood_observed, engagement_level, key_observations, notes
		   FROM sessions
		  WHERE observer_id = ? AND started_at >= ? AND started_at < ?
		  ORDER BY started_at DESC`,
		observerID,
		toMillis(start),
		toMillis(end),
	)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ActiveSessionForChild probes for an in_progress session for the child.
func (s *Store) ActiveSessionForChild(ctx context.Context, childID string) (session.Session, bool, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, child_id, observer_id, status, started_at, ended_at,
		        duration_minutes, mood_observed, engagement_level, key_observations, notes
		   FROM sessions WHERE child_id = ? AND status = ? LIMIT 1`,
		childID,
		string(session.StatusInProgress),
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("select active session: %w", err)
	}
	return sess, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (session.Session, error) {
	var (
		sess      session.Session
		status    string
		startedAt int64
		endedAt   sql.NullInt64
	)
	err := row.Scan(
		&sess.ID,
		&sess.ChildID,
		&sess.ObserverID,
		&status,
		&startedAt,
		&endedAt,
		&sess.DurationMinutes,
		&sess.MoodObserved,
		&sess.EngagementLevel,
		&sess.KeyObservations,
		&sess.Notes,
	)
	if err != nil {
		return session.Session{}, err
	}
	sess.Status = session.Status(status)
	sess.StartedAt = fromMillis(startedAt)
	if endedAt.Valid {
		sess.EndedAt = fromMillis(endedAt.Int64)
	}
	return sess, nil
}

// CreateReport inserts one daily report.
func (s *Store) CreateReport(ctx context.Context, r report.DailyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO daily_reports (
		   id, child_id, observer_id, session_id, report_date, session_summary,
		   child_mood, engagement_level, key_observations, concerns,
		   positive_moments, recommendations, review_status, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.ChildID,
		r.ObserverID,
		r.SessionID,
		r.ReportDate,
		r.SessionSummary,
		r.ChildMood,
		r.EngagementLevel,
		r.KeyObservations,
		r.Concerns,
		r.PositiveMoments,
		r.Recommendations,
		string(r.ReviewStatus),
		toMillis(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReportBySession finds the report linked to a session, if any.
func (s *Store) GetReportBySession(ctx context.Context, sessionID string) (report.DailyReport, error) {
	if sessionID == "" {
		return report.DailyReport{}, storage.ErrReportNotFound
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, child_id, observer_id, session_id, report_date, session_summary,
		        child_mood, engagement_level, key_observations, concerns,
		        positive_moments, recommendations, review_status, created_at
		   FROM daily_reports WHERE session_id = ? LIMIT 1`,
		sessionID,
	)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return report.DailyReport{}, storage.ErrReportNotFound
	}
	if err != nil {
		return report.DailyReport{}, fmt.Errorf("select report: %w", err)
	}
	return r, nil
}

// ListReportsByObserver returns the observer's reports, newest first.
func (s *Store) ListReportsByObserver(ctx context.Context, observerID string) ([]report.DailyReport, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, child_id, observer_id, session_id, report_date, session_summary,
		        child_mood, engagement_level, key_observations, concerns,
		        positive_moments, recommendations, review_status, created_at
		   FROM daily_reports WHERE observer_id = ? ORDER BY created_at DESC`,
		observerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	defer rows.Close()

	var reports []report.DailyReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

func scanReport(row rowScanner) (report.DailyReport, error) {
	var (
		r            report.DailyReport
		reviewStatus string
		createdAt    int64
	)
	err := row.Scan(
		&r.ID,
		&r.ChildID,
		&r.ObserverID,
		&r.SessionID,
		&r.ReportDate,
		&r.SessionSummary,
		&r.ChildMood,
		&r.EngagementLevel,
		&r.KeyObservations,
		&r.Concerns,
		&r.PositiveMoments,
		&r.Recommendations,
		&reviewStatus,
		&createdAt,
	)
	if err != nil {
		return report.DailyReport{}, err
	}
	r.ReviewStatus = report.ReviewStatus(reviewStatus)
	r.CreatedAt = fromMillis(createdAt)
	return r, nil
}

// CreateEscalation inserts one escalation.
func (s *Store) CreateEscalation(ctx context.Context, e escalation.Escalation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO escalations (
		   id, child_id, observer_id, session_id, type, severity, description,
		   observed_behaviors, immediate_actions_taken, status, resolution,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.ChildID,
		e.ObserverID,
		e.SessionID,
		e.Type,
		string(e.Severity),
		e.Description,
		e.ObservedBehaviors,
		e.ImmediateActionsTaken,
		string(e.Status),
		e.Resolution,
		toMillis(e.CreatedAt),
		toMillis(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert escalation: %w", err)
	}
	return nil
}

// GetEscalation retrieves an escalation by identifier.
func (s *Store) GetEscalation(ctx context.Context, id string) (escalation.Escalation, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, child_id, observer_id, session_id, type, severity, description,
		        observed_behaviors, immediate_actions_taken, status, resolution,
		        created_at, updated_at
		   FROM escalations WHERE id = ?`,
		id,
	)
	e, err := scanEscalation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return escalation.Escalation{}, storage.ErrEscalationNotFound
	}
	if err != nil {
		return escalation.Escalation{}, fmt.Errorf("select escalation: %w", err)
	}
	return e, nil
}

// UpdateEscalation replaces the mutable fields of a stored escalation.
func (s *Store) UpdateEscalation(ctx context.Context, e escalation.Escalation) error {
	res, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE escalations SET status = ?, resolution = ?, updated_at = ? WHERE id = ?`,
		string(e.Status),
		e.Resolution,
		toMillis(e.UpdatedAt),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update escalation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update escalation rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrEscalationNotFound
	}
	return nil
}

// ListEscalationsByObserver returns the observer's escalations, newest first.
func (s *Store) ListEscalationsByObserver(ctx context.Context, observerID string) ([]escalation.Escalation, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, child_id, observer_id, session_id, type, severity, description,
		        observed_behaviors, immediate_actions_taken, status, resolution,
		        created_at, updated_at
		   FROM escalations WHERE observer_id = ? ORDER BY created_at DESC`,
		observerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select escalations: %w", err)
	}
	defer rows.Close()

	var escalations []escalation.Escalation
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan escalation: %w", err)
		}
		escalations = append(escalations, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate escalations: %w", err)
	}
	return escalations, nil
}

func scanEscalation(row rowScanner) (escalation.Escalation, error) {
	var (
		e         escalation.Escalation
		severity  string
		status    string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&e.ID,
		&e.ChildID,
		&e.ObserverID,
		&e.SessionID,
		&e.Type,
		&severity,
		&e.Description,
		&e.ObservedBehaviors,
		&e.ImmediateActionsTaken,
		&status,
		&e.Resolution,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return escalation.Escalation{}, err
	}
	e.Severity = escalation.Severity(severity)
	e.Status = escalation.Status(status)
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return e, nil
}

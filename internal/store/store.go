// Package store archives accepted detections and fused triangulations in
// sqlite so sessions can be reviewed after the fact.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skywatch-data/stereotrack/internal/motion"
	"github.com/skywatch-data/stereotrack/internal/track"
)

// Store wraps the sqlite archive. It implements track.Archive.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path. Use ":memory:" for an
// ephemeral archive in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS detections (
			session_id TEXT NOT NULL,
			camera_id TEXT NOT NULL,
			center_x DOUBLE NOT NULL,
			center_y DOUBLE NOT NULL,
			bbox_x INTEGER NOT NULL,
			bbox_y INTEGER NOT NULL,
			bbox_w INTEGER NOT NULL,
			bbox_h INTEGER NOT NULL,
			area INTEGER NOT NULL,
			timestamp_ns BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_detections_session
			ON detections (session_id, camera_id, timestamp_ns);
		CREATE TABLE IF NOT EXISTS triangulations (
			session_id TEXT NOT NULL,
			pos_x DOUBLE NOT NULL,
			pos_y DOUBLE NOT NULL,
			pos_z DOUBLE NOT NULL,
			confidence DOUBLE NOT NULL,
			pairs INTEGER NOT NULL,
			cameras INTEGER NOT NULL,
			computed_ns BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_triangulations_session
			ON triangulations (session_id, computed_ns);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordDetection archives one accepted detection.
func (s *Store) RecordDetection(sessionID string, d motion.Detection) error {
	_, err := s.db.Exec(`
		INSERT INTO detections
			(session_id, camera_id, center_x, center_y, bbox_x, bbox_y, bbox_w, bbox_h, area, timestamp_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, string(d.Camera), d.Center.X, d.Center.Y,
		d.Bounds.X, d.Bounds.Y, d.Bounds.W, d.Bounds.H,
		d.Area, d.Timestamp.UnixNano())
	return err
}

// RecordTriangulation archives one fused estimate.
func (s *Store) RecordTriangulation(sessionID string, p track.TriangulatedPoint) error {
	_, err := s.db.Exec(`
		INSERT INTO triangulations
			(session_id, pos_x, pos_y, pos_z, confidence, pairs, cameras, computed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, p.Position.Position.X, p.Position.Position.Y, p.Position.Position.Z,
		p.Position.Confidence, p.Position.Pairs, len(p.Set), p.ComputedAt.UnixNano())
	return err
}

// TriangulationRow is one archived estimate.
type TriangulationRow struct {
	SessionID  string
	X, Y, Z    float64
	Confidence float64
	Pairs      int
	Cameras    int
	ComputedAt time.Time
}

// RecentTriangulations returns up to limit archived estimates for a session,
// newest first.
func (s *Store) RecentTriangulations(sessionID string, limit int) ([]TriangulationRow, error) {
	rows, err := s.db.Query(`
		SELECT session_id, pos_x, pos_y, pos_z, confidence, pairs, cameras, computed_ns
		FROM triangulations
		WHERE session_id = ?
		ORDER BY computed_ns DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TriangulationRow
	for rows.Next() {
		var r TriangulationRow
		var ns int64
		if err := rows.Scan(&r.SessionID, &r.X, &r.Y, &r.Z, &r.Confidence, &r.Pairs, &r.Cameras, &ns); err != nil {
			return nil, err
		}
		r.ComputedAt = time.Unix(0, ns)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DetectionCount returns the number of archived detections for one camera in
// one session.
func (s *Store) DetectionCount(sessionID string, camera motion.CameraID) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM detections WHERE session_id = ? AND camera_id = ?`,
		sessionID, string(camera)).Scan(&n)
	return n, err
}

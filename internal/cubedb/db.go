// Package cubedb persists capture sessions and raw frames in sqlite. Frames
// are stored in bus wire order, lanes still reversed, so a recorded session
// concatenates into a file the replay transport serves byte for byte and the
// assembler's lane correction applies exactly once.
package cubedb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/mmwave/internal/cube"
)

// Store is a sqlite-backed capture store.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the capture database at path and applies
// any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cubedb: open %s: %w", path, err)
	}

	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Session describes one recorded acquisition run.
type Session struct {
	ID        string
	Transport string
	Dims      cube.Dims
	StartedAt time.Time
	EndedAt   *time.Time
}

// BeginSession records the start of an acquisition run and returns its ID.
func (s *Store) BeginSession(dims cube.Dims, transport string) (string, error) {
	if err := dims.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.Exec(`
		INSERT INTO sessions (
			session_id, transport,
			num_tx_antennas, num_rx_antennas, num_range_bins, num_chirps_per_frame,
			frame_length, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, transport,
		dims.NumTxAntennas, dims.NumRxAntennas, dims.NumRangeBins, dims.NumChirpsPerFrame,
		dims.FrameLength(), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("cubedb: begin session: %w", err)
	}
	return id, nil
}

// EndSession stamps the session's end time.
func (s *Store) EndSession(id string) error {
	res, err := s.Exec(`UPDATE sessions SET ended_at = ? WHERE session_id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("cubedb: end session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("cubedb: no session %s", id)
	}
	return nil
}

// RecordFrame stores one raw frame under the session.
func (s *Store) RecordFrame(sessionID string, index int, capturedAt time.Time, raw []byte) error {
	_, err := s.Exec(`
		INSERT INTO frames (session_id, frame_index, captured_at, n_bytes, raw)
		VALUES (?, ?, ?, ?, ?)`,
		sessionID, index, capturedAt.UTC(), len(raw), raw,
	)
	if err != nil {
		return fmt.Errorf("cubedb: record frame %d: %w", index, err)
	}
	return nil
}

// GetSession loads a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.QueryRow(`
		SELECT session_id, transport,
		       num_tx_antennas, num_rx_antennas, num_range_bins, num_chirps_per_frame,
		       started_at, ended_at
		FROM sessions WHERE session_id = ?`, id)

	var sess Session
	var ended sql.NullTime
	err := row.Scan(&sess.ID, &sess.Transport,
		&sess.Dims.NumTxAntennas, &sess.Dims.NumRxAntennas,
		&sess.Dims.NumRangeBins, &sess.Dims.NumChirpsPerFrame,
		&sess.StartedAt, &ended)
	if err != nil {
		return nil, fmt.Errorf("cubedb: get session %s: %w", id, err)
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return &sess, nil
}

// FrameCount returns the number of frames recorded under a session.
func (s *Store) FrameCount(sessionID string) (int, error) {
	var n int
	err := s.QueryRow(`SELECT COUNT(*) FROM frames WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cubedb: frame count: %w", err)
	}
	return n, nil
}

// Frame loads one raw frame and its capture time.
func (s *Store) Frame(sessionID string, index int) ([]byte, time.Time, error) {
	var raw []byte
	var capturedAt time.Time
	err := s.QueryRow(`
		SELECT raw, captured_at FROM frames
		WHERE session_id = ? AND frame_index = ?`,
		sessionID, index).Scan(&raw, &capturedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("cubedb: frame %d of session %s: %w", index, sessionID, err)
	}
	return raw, capturedAt, nil
}

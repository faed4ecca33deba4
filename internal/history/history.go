package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500

	// timeLayout is fixed-width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Domain errors for the history package.
var (
	// ErrInvalidRetention is returned when pruning with a non-positive age.
	ErrInvalidRetention = errors.New("history: retention must be positive")
)

// Entry is one recorded state change.
type Entry struct {
	ID         int64
	AgentID    string
	SensorID   int
	SensorName string
	Value      string
	RecordedAt time.Time
}

// SQLiteRepository stores state changes in the sensor_state_history table.
type SQLiteRepository struct {
	db      *sql.DB
	agentID string
	now     func() time.Time
}

// NewSQLiteRepository creates a repository writing rows tagged with agentID.
func NewSQLiteRepository(db *sql.DB, agentID string) *SQLiteRepository {
	return &SQLiteRepository{db: db, agentID: agentID, now: time.Now}
}

// RecordStateChange inserts one state change.
func (r *SQLiteRepository) RecordStateChange(ctx context.Context, s sensor.State) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sensor_state_history (agent_id, sensor_id, sensor_name, value, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.agentID, s.SensorID, s.SensorName, s.Value, r.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting state history: %w", err)
	}
	return nil
}

// GetHistory returns a sensor's recorded changes, newest first.
// limit defaults to 50 and is capped at 500.
func (r *SQLiteRepository) GetHistory(ctx context.Context, sensorID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, agent_id, sensor_id, sensor_name, value, recorded_at
		 FROM sensor_state_history
		 WHERE sensor_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		sensorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var recordedAt string
		if err := rows.Scan(&e.ID, &e.AgentID, &e.SensorID, &e.SensorName, &e.Value, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning state history: %w", err)
		}
		e.RecordedAt, err = time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}
	return entries, nil
}

// PruneHistory deletes entries older than olderThan and returns how many
// were removed.
func (r *SQLiteRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := r.now().UTC().Add(-olderThan).Format(timeLayout)
	result, err := r.db.ExecContext(ctx, "DELETE FROM sensor_state_history WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting state history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

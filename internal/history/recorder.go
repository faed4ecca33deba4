package history

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// writeTimeout bounds one history insert.
const writeTimeout = 5 * time.Second

// Logger defines the logging interface used by the history package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder writes state changes to a repository. Its Listen method is a
// statestore.Listener.
type Recorder struct {
	repo   *SQLiteRepository
	logger Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(repo *SQLiteRepository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, logger: logger}
}

// Listen records s. Unknown placeholders are skipped; they carry no reading.
func (r *Recorder) Listen(ctx context.Context, s sensor.State) {
	if s.IsUnknown() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := r.repo.RecordStateChange(ctx, s); err != nil {
		r.logger.Error("failed to record state change", "sensor_id", s.SensorID, "error", err)
	}
}

// RunPruner deletes entries older than retention every interval until ctx
// is cancelled.
func (r *Recorder) RunPruner(ctx context.Context, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := r.repo.PruneHistory(ctx, retention)
		switch {
		case err != nil && ctx.Err() == nil:
			r.logger.Error("failed to prune state history", "error", err)
		case n > 0:
			r.logger.Info("pruned state history", "deleted", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

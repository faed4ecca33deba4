package audit

import (
	"context"
	"time"
)

// writeTimeout bounds one audit insert.
const writeTimeout = 5 * time.Second

// Logger is the logging interface used to report failed writes.
type Logger interface {
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Recorder stamps entries with the agent ID and writes them, logging
// failures instead of returning them.
type Recorder struct {
	repo    Repository
	agentID string
	logger  Logger
}

// NewRecorder creates a Recorder. logger may be nil.
func NewRecorder(repo Repository, agentID string, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, agentID: agentID, logger: logger}
}

// Record writes log. The write is not cancelled with ctx, so shutdown
// entries still land.
func (r *Recorder) Record(ctx context.Context, log *AuditLog) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	log.AgentID = r.agentID
	if err := r.repo.Create(ctx, log); err != nil {
		r.logger.Error("failed to write audit log", "action", log.Action, "entity_id", log.EntityID, "error", err)
	}
}

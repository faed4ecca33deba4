package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-agent/migrations"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestCreateAndList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	entries := []*AuditLog{
		{AgentID: "a1", Action: ActionStart, EntityType: EntityAgent, EntityID: "a1", Source: SourceAgent, CreatedAt: base},
		{AgentID: "a1", Action: ActionCommand, EntityType: EntityCommand, EntityID: "7", Source: SourceRule,
			Details: map[string]any{"argument": "on"}, CreatedAt: base.Add(time.Second)},
		{AgentID: "a1", Action: ActionStop, EntityType: EntityAgent, EntityID: "a1", Source: SourceAgent, CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Create() did not assign an ID")
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 3 || len(all.Logs) != 3 {
		t.Fatalf("List() total=%d len=%d, want 3", all.Total, len(all.Logs))
	}
	if all.Logs[0].Action != ActionStop || all.Logs[2].Action != ActionStart {
		t.Errorf("order = %s..%s, want newest first", all.Logs[0].Action, all.Logs[2].Action)
	}
	if all.Limit != defaultListLimit {
		t.Errorf("Limit = %d, want %d", all.Limit, defaultListLimit)
	}

	commands, err := repo.List(ctx, Filter{Action: ActionCommand, EntityID: "7"})
	if err != nil {
		t.Fatalf("List(command) error = %v", err)
	}
	if commands.Total != 1 {
		t.Fatalf("List(command) total = %d, want 1", commands.Total)
	}
	got := commands.Logs[0]
	if got.Details["argument"] != "on" || got.Source != SourceRule {
		t.Errorf("command entry = %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(time.Second)) {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
}

func TestListPagination(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Create(ctx, &AuditLog{Action: ActionStart, EntityType: EntityAgent, Source: SourceAgent}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name      string
		filter    Filter
		wantLen   int
		wantLimit int
	}{
		{"page", Filter{Limit: 2, Offset: 1}, 2, 2},
		{"past end", Filter{Limit: 2, Offset: 10}, 0, 2},
		{"negative offset", Filter{Limit: 10, Offset: -3}, 5, 10},
		{"clamped limit", Filter{Limit: 1000}, 5, maxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(res.Logs) != tt.wantLen || res.Limit != tt.wantLimit || res.Total != 5 {
				t.Errorf("len=%d limit=%d total=%d, want %d %d 5", len(res.Logs), res.Limit, res.Total, tt.wantLen, tt.wantLimit)
			}
		})
	}
}

type failingRepo struct{ Repository }

func (failingRepo) Create(context.Context, *AuditLog) error { return errors.New("disk full") }

type captureLogger struct{ errors int }

func (l *captureLogger) Error(string, ...any) { l.errors++ }

func TestRecorder(t *testing.T) {
	repo := setupTestRepo(t)
	rec := NewRecorder(repo, "hall-01", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, &AuditLog{Action: ActionStop, EntityType: EntityAgent, Source: SourceAgent})

	res, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || res.Logs[0].AgentID != "hall-01" {
		t.Errorf("recorded %+v, want one entry for hall-01 despite cancelled ctx", res.Logs)
	}

	logger := &captureLogger{}
	NewRecorder(failingRepo{}, "hall-01", logger).Record(context.Background(), &AuditLog{Action: ActionStart})
	if logger.errors != 1 {
		t.Errorf("logged %d errors, want 1", logger.errors)
	}
}

package virtual

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/command"
)

// passthrough is a command.Sensor that returns raw values unchanged.
type passthrough struct{}

func (passthrough) ID() int                  { return 1 }
func (passthrough) Name() string             { return "passthrough" }
func (passthrough) Property(string) string   { return "" }
func (passthrough) Coerce(raw string) string { return raw }

func def(id int, props map[string]string) command.Definition {
	return command.Definition{ID: id, Name: "cmd", Protocol: Protocol, Properties: props}
}

func TestNew_MissingAddress(t *testing.T) {
	_, err := New(def(1, nil), NewSimulator())
	if !errors.Is(err, ErrMissingAddress) {
		t.Errorf("New() error = %v, want ErrMissingAddress", err)
	}
}

func TestCommand_SendRead(t *testing.T) {
	sim := NewSimulator()
	cmd, err := New(def(1, map[string]string{"address": "A1", "command": "ping"}), sim)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if got, _ := cmd.Read(ctx, passthrough{}); got != "" {
		t.Errorf("Read() before send = %q, want empty", got)
	}

	if err := cmd.Send(ctx, ""); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got, _ := cmd.Read(ctx, passthrough{}); got != "ping" {
		t.Errorf("Read() after empty send = %q, want default %q", got, "ping")
	}

	if err := cmd.Send(ctx, "on"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got, _ := cmd.Read(ctx, passthrough{}); got != "on" {
		t.Errorf("Read() = %q, want %q", got, "on")
	}
}

func TestCommand_SharedAddress(t *testing.T) {
	sim := NewSimulator()
	writer, _ := New(def(1, map[string]string{"address": "A1"}), sim)
	reader, _ := New(def(2, map[string]string{"address": "A1"}), sim)
	other, _ := New(def(3, map[string]string{"address": "B7"}), sim)

	ctx := context.Background()
	_ = writer.Send(ctx, "42")

	if got, _ := reader.Read(ctx, passthrough{}); got != "42" {
		t.Errorf("reader.Read() = %q, want 42", got)
	}
	if got, _ := other.Read(ctx, passthrough{}); got != "" {
		t.Errorf("other.Read() = %q, want empty", got)
	}

	// Separate simulators never share values.
	isolated, _ := New(def(4, map[string]string{"address": "A1"}), NewSimulator())
	if got, _ := isolated.Read(ctx, passthrough{}); got != "" {
		t.Errorf("isolated.Read() = %q, want empty", got)
	}
}

func TestCommand_PollingInterval(t *testing.T) {
	tests := []struct {
		prop string
		want time.Duration
	}{
		{"", 0},
		{"250", 250 * time.Millisecond},
		{"3s", 3 * time.Second},
	}

	for _, tt := range tests {
		cmd, err := New(def(1, map[string]string{"address": "A", "polling-interval": tt.prop}), NewSimulator())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if got := cmd.PollingInterval(); got != tt.want {
			t.Errorf("PollingInterval(%q) = %v, want %v", tt.prop, got, tt.want)
		}
	}
}

func TestNewBuilder(t *testing.T) {
	sim := NewSimulator()
	b := NewBuilder(sim)

	cmd, err := b.Build(def(5, map[string]string{"address": "X"}))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, ok := cmd.(command.Executable); !ok {
		t.Error("virtual command should be Executable")
	}
	if !command.IsSensorUpdate(cmd) {
		t.Error("virtual command should be a sensor update command")
	}
	if cmd.Definition().ID != 5 {
		t.Errorf("Definition().ID = %d, want 5", cmd.Definition().ID)
	}
}

func TestSimulator_Concurrent(t *testing.T) {
	sim := NewSimulator()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sim.Store("A1", "on")
		}()
		go func() {
			defer wg.Done()
			sim.Load("A1")
		}()
	}
	wg.Wait()

	if v, ok := sim.Load("A1"); !ok || v != "on" {
		t.Errorf("Load() = %q, %v, want on, true", v, ok)
	}
}

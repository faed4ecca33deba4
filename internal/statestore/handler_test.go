package statestore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

type recorder struct {
	mu     sync.Mutex
	states []sensor.State
}

func (r *recorder) listen(_ context.Context, s sensor.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshot() []sensor.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sensor.State(nil), r.states...)
}

func startHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	h := New(nil, opts...)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = h.Stop() })
	return h
}

func TestHandler_PutGet(t *testing.T) {
	h := startHandler(t)

	s := sensor.State{SensorID: 1, SensorName: "lamp", Value: "on"}
	if !h.Put(s) {
		t.Error("first Put() = false, want true")
	}
	if got, ok := h.Get(1); !ok || got != s {
		t.Errorf("Get() = %+v, %v, want %+v", got, ok, s)
	}

	if _, ok := h.Get(2); ok {
		t.Error("Get() for unknown sensor should not be found")
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
}

func TestHandler_Dedup(t *testing.T) {
	h := startHandler(t)

	tests := []struct {
		value   string
		changed bool
	}{
		{"on", true},
		{"on", false},
		{"off", true},
		{"off", false},
		{"on", true},
	}

	for i, tt := range tests {
		got := h.Put(sensor.State{SensorID: 1, Value: tt.value})
		if got != tt.changed {
			t.Errorf("step %d: Put(%q) = %v, want %v", i, tt.value, got, tt.changed)
		}
	}
}

func TestHandler_ListenersOnlyOnChange(t *testing.T) {
	h := New(nil)
	rec := &recorder{}
	h.AddListener(rec.listen)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	s := sensor.State{SensorID: 1, Value: "21"}
	h.Put(s)
	h.Put(s)
	h.Put(sensor.State{SensorID: 1, Value: "22"})
	h.Put(sensor.State{SensorID: 2, Value: "21"})

	// Stop delivers everything already queued.
	if err := h.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	got := rec.snapshot()
	if len(got) != 3 {
		t.Fatalf("notifications = %d (%v), want 3", len(got), got)
	}
	if got[0].Value != "21" || got[1].Value != "22" || got[2].SensorID != 2 {
		t.Errorf("notifications = %+v", got)
	}
}

func TestHandler_StopClearsAndRejects(t *testing.T) {
	h := New(nil)
	if h.Put(sensor.State{SensorID: 1, Value: "x"}) {
		t.Error("Put() before Start should be rejected")
	}

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := h.Start(context.Background()); err != ErrAlreadyStarted {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	h.Put(sensor.State{SensorID: 1, Value: "x"})
	if err := h.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if _, ok := h.Get(1); ok {
		t.Error("state should be cleared after Stop")
	}
	if h.Put(sensor.State{SensorID: 1, Value: "y"}) {
		t.Error("Put() after Stop should be rejected")
	}
	if err := h.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}

	// Restart works on a clean store.
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	defer h.Stop()
	if !h.Put(sensor.State{SensorID: 1, Value: "x"}) {
		t.Error("Put() after restart should insert")
	}
}

func TestHandler_FullQueueDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	h := New(nil, WithQueueSize(1))
	h.AddListener(func(context.Context, sensor.State) { <-release })
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			h.Put(sensor.State{SensorID: 1, Value: string(rune('a' + i))})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Put() blocked on a slow listener")
	}

	close(release)
	_ = h.Stop()
}

func TestHandler_ListenerPanicRecovered(t *testing.T) {
	h := New(nil)
	rec := &recorder{}
	h.AddListener(func(context.Context, sensor.State) { panic("boom") })
	h.AddListener(rec.listen)
	_ = h.Start(context.Background())

	h.Put(sensor.State{SensorID: 1, Value: "on"})
	_ = h.Stop()

	if len(rec.snapshot()) != 1 {
		t.Error("listener after a panicking one was not called")
	}
}

func TestHandler_ConcurrentPut(t *testing.T) {
	h := startHandler(t)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Put(sensor.State{SensorID: id, Value: "v"})
				h.Get(id)
			}
		}(i)
	}
	wg.Wait()

	if h.Len() != 8 {
		t.Errorf("Len() = %d, want 8", h.Len())
	}
}

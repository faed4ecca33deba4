package statestore

import (
	"context"
	"errors"
	"sync"

	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// DefaultQueueSize is the number of pending change notifications.
const DefaultQueueSize = 256

// ErrAlreadyStarted is returned by Start on a running handler.
var ErrAlreadyStarted = errors.New("statestore: already started")

// Logger defines the logging interface used by the handler.
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

// Listener is called once for every committed change.
type Listener func(ctx context.Context, state sensor.State)

// Option configures a Handler.
type Option func(*Handler)

// WithQueueSize sets the notification queue capacity.
func WithQueueSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// Handler is the deduplicating sensor state store.
//
// Thread Safety: all methods are safe for concurrent use.
type Handler struct {
	logger    Logger
	queueSize int

	mu        sync.RWMutex
	states    map[int]sensor.State
	listeners []Listener
	running   bool
	queue     chan sensor.State
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a stopped handler.
func New(logger Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = noopLogger{}
	}
	h := &Handler{
		logger:    logger,
		queueSize: DefaultQueueSize,
		states:    make(map[int]sensor.State),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddListener registers fn for change notifications. Listeners added while
// running see changes committed after the call.
func (h *Handler) AddListener(fn Listener) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Start accepts puts and starts the notification dispatcher. The context
// is handed to listeners and cancelled by Stop.
func (h *Handler) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return ErrAlreadyStarted
	}

	dctx, cancel := context.WithCancel(ctx)
	h.queue = make(chan sensor.State, h.queueSize)
	h.done = make(chan struct{})
	h.cancel = cancel
	h.running = true

	go h.dispatch(dctx, h.queue, h.done)

	h.logger.Debug("state handler started")
	return nil
}

// Stop rejects further puts, delivers queued notifications, and clears all
// state. Stopping a stopped handler is a no-op.
func (h *Handler) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	close(h.queue)
	done, cancel := h.done, h.cancel
	h.queue, h.done, h.cancel = nil, nil, nil
	clear(h.states)
	h.mu.Unlock()

	<-done
	cancel()

	h.logger.Debug("state handler stopped")
	return nil
}

// Put stores s. It is a no-op when the stored state for the sensor is equal
// to s, and rejected when the handler is not running. Put reports whether
// the stored state changed.
func (h *Handler) Put(s sensor.State) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return false
	}

	if prev, ok := h.states[s.SensorID]; ok && prev.Equal(s) {
		return false
	}
	h.states[s.SensorID] = s

	if len(h.listeners) > 0 {
		select {
		case h.queue <- s:
		default:
			h.logger.Warn("state notification queue full, dropping change",
				"sensor_id", s.SensorID, "value", s.Value)
		}
	}
	return true
}

// Get returns the stored state for a sensor.
func (h *Handler) Get(sensorID int) (sensor.State, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.states[sensorID]
	return s, ok
}

// Len returns the number of stored states.
func (h *Handler) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.states)
}

// IsRunning reports whether the handler accepts puts.
func (h *Handler) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

func (h *Handler) dispatch(ctx context.Context, queue <-chan sensor.State, done chan<- struct{}) {
	defer close(done)

	for s := range queue {
		h.mu.RLock()
		listeners := h.listeners
		h.mu.RUnlock()

		for _, fn := range listeners {
			h.notify(ctx, fn, s)
		}
	}
}

func (h *Handler) notify(ctx context.Context, fn Listener, s sensor.State) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("state listener panicked", "sensor_id", s.SensorID, "panic", r)
		}
	}()
	fn(ctx, s)
}

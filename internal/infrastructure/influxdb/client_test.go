package influxdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-agent/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// fakeWriteAPI captures points. Methods the client never uses are left
// to the embedded nil interface.
type fakeWriteAPI struct {
	api.WriteAPI

	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (f *fakeWriteAPI) WritePoint(p *write.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p)
}

func (f *fakeWriteAPI) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func (f *fakeWriteAPI) written() []*write.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*write.Point(nil), f.points...)
}

var fixedTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestClient() (*Client, *fakeWriteAPI) {
	fake := &fakeWriteAPI{}
	c := newClient(nil, fake, "hall-01")
	c.now = func() time.Time { return fixedTime }
	return c, fake
}

func fields(p *write.Point) map[string]interface{} {
	out := map[string]interface{}{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tags(p *write.Point) map[string]string {
	out := map[string]string{}
	for _, t := range p.TagList() {
		out[t.Key] = t.Value
	}
	return out
}

// pingServer answers /ping with status.
func pingServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(status)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "graylogic-dev-token",
		Org:           "graylogic",
		Bucket:        "agent",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	client, err := Connect(context.Background(), cfg, "hall-01")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() returned a client while disabled")
	}
}

func TestConnect_PingServer(t *testing.T) {
	srv := pingServer(t, http.StatusNoContent)

	client, err := Connect(context.Background(), testConfig(srv.URL), "hall-01")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	srv := pingServer(t, http.StatusNoContent)
	cfg := testConfig(srv.URL)
	cfg.BatchSize = -5
	cfg.FlushInterval = 0

	client, err := Connect(context.Background(), cfg, "hall-01")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), testConfig("http://127.0.0.1:59999"), "hall-01")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_Unhealthy(t *testing.T) {
	srv := pingServer(t, http.StatusServiceUnavailable)

	_, err := Connect(context.Background(), testConfig(srv.URL), "hall-01")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose(t *testing.T) {
	c, fake := newTestClient()

	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.Flush()
	if fake.flushes != 0 {
		t.Error("Flush() after disconnect reached the write API")
	}

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestSetOnError(t *testing.T) {
	c, _ := newTestClient()

	var got error
	c.SetOnError(func(err error) { got = err })

	ch := make(chan error, 1)
	ch <- errors.New("write rejected")
	close(ch)
	c.handleWriteErrors(ch)

	if got == nil || got.Error() != "write rejected" {
		t.Errorf("callback got %v", got)
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestWriteSensorState(t *testing.T) {
	tests := []struct {
		name       string
		state      sensor.State
		kind       sensor.Kind
		wantFields map[string]interface{}
	}{
		{
			name:       "level is numeric",
			state:      sensor.State{SensorID: 2, SensorName: "dimmer", Value: "55"},
			kind:       sensor.KindLevel,
			wantFields: map[string]interface{}{"value": 55.0},
		},
		{
			name:       "range is numeric",
			state:      sensor.State{SensorID: 3, SensorName: "temp", Value: "-4"},
			kind:       sensor.KindRange,
			wantFields: map[string]interface{}{"value": -4.0},
		},
		{
			name:       "switch is a state string",
			state:      sensor.State{SensorID: 1, SensorName: "lamp", Value: "on"},
			kind:       sensor.KindSwitch,
			wantFields: map[string]interface{}{"state": "on"},
		},
		{
			name:       "numeric custom stays a string",
			state:      sensor.State{SensorID: 4, SensorName: "mode", Value: "2"},
			kind:       sensor.KindCustom,
			wantFields: map[string]interface{}{"state": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newTestClient()
			c.WriteSensorState(tt.state, tt.kind)

			points := fake.written()
			if len(points) != 1 {
				t.Fatalf("wrote %d points, want 1", len(points))
			}
			p := points[0]

			if p.Name() != Measurement {
				t.Errorf("measurement = %q, want %q", p.Name(), Measurement)
			}
			if !p.Time().Equal(fixedTime) {
				t.Errorf("time = %v, want %v", p.Time(), fixedTime)
			}

			gotTags := tags(p)
			if gotTags["agent_id"] != "hall-01" || gotTags["sensor"] != tt.state.SensorName || gotTags["kind"] != string(tt.kind) {
				t.Errorf("tags = %v", gotTags)
			}

			gotFields := fields(p)
			if len(gotFields) != len(tt.wantFields) {
				t.Fatalf("fields = %v, want %v", gotFields, tt.wantFields)
			}
			for k, want := range tt.wantFields {
				if gotFields[k] != want {
					t.Errorf("field %s = %v (%T), want %v (%T)", k, gotFields[k], gotFields[k], want, want)
				}
			}
		})
	}
}

func TestWriteSensorState_SkipsUnknownAndDisconnected(t *testing.T) {
	c, fake := newTestClient()

	c.WriteSensorState(sensor.Unknown(1, "lamp"), sensor.KindSwitch)
	if n := len(fake.written()); n != 0 {
		t.Errorf("unknown placeholder wrote %d points", n)
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.WriteSensorState(sensor.State{SensorID: 1, SensorName: "lamp", Value: "on"}, sensor.KindSwitch)
	if n := len(fake.written()); n != 0 {
		t.Errorf("disconnected client wrote %d points", n)
	}
}

func TestStateListener(t *testing.T) {
	c, fake := newTestClient()
	kinds := map[int]sensor.Kind{2: sensor.KindLevel}
	listen := c.StateListener(func(id int) (sensor.Kind, bool) {
		k, ok := kinds[id]
		return k, ok
	})

	listen(context.Background(), sensor.State{SensorID: 2, SensorName: "dimmer", Value: "10"})
	listen(context.Background(), sensor.State{SensorID: 9, SensorName: "ghost", Value: "10"})

	points := fake.written()
	if len(points) != 2 {
		t.Fatalf("wrote %d points, want 2", len(points))
	}
	if tags(points[0])["kind"] != "level" {
		t.Errorf("first kind = %q, want level", tags(points[0])["kind"])
	}
	if tags(points[1])["kind"] != "custom" {
		t.Errorf("unresolved kind = %q, want custom", tags(points[1])["kind"])
	}
}

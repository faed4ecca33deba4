package influxdb

import (
	"context"
	"strconv"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// Measurement is the measurement sensor states are written to.
const Measurement = "sensor_state"

// KindFunc resolves the kind of a sensor by ID.
type KindFunc func(sensorID int) (sensor.Kind, bool)

// WriteSensorState queues one point for s. Unknown placeholders are
// skipped.
func (c *Client) WriteSensorState(s sensor.State, kind sensor.Kind) {
	if !c.IsConnected() || s.IsUnknown() {
		return
	}
	c.writeAPI.WritePoint(c.statePoint(s, kind))
}

func (c *Client) statePoint(s sensor.State, kind sensor.Kind) *write.Point {
	tags := map[string]string{
		"agent_id":  c.agentID,
		"sensor_id": strconv.Itoa(s.SensorID),
		"sensor":    s.SensorName,
		"kind":      string(kind),
	}

	fields := map[string]interface{}{}
	if v, err := strconv.ParseFloat(s.Value, 64); err == nil && numeric(kind) {
		fields["value"] = v
	} else {
		fields["state"] = s.Value
	}

	return write.NewPoint(Measurement, tags, fields, c.now())
}

func numeric(kind sensor.Kind) bool {
	return kind == sensor.KindRange || kind == sensor.KindLevel
}

// StateListener returns a statestore listener writing every committed
// state. Sensors kindOf does not know are written as custom.
func (c *Client) StateListener(kindOf KindFunc) func(context.Context, sensor.State) {
	return func(_ context.Context, s sensor.State) {
		kind, ok := kindOf(s.SensorID)
		if !ok {
			kind = sensor.KindCustom
		}
		c.WriteSensorState(s, kind)
	}
}

package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-agent/internal/sensor"
)

// Publisher is the part of Client used by StatePublisher.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// StatePayload is the JSON body of a sensor state topic.
type StatePayload struct {
	AgentID   string `json:"agent_id"`
	SensorID  int    `json:"sensor_id"`
	Sensor    string `json:"sensor"`
	Value     string `json:"value"`
	Timestamp string `json:"timestamp"`
}

// StatePublisher publishes committed sensor states as retained messages.
type StatePublisher struct {
	pub    Publisher
	topics Topics
	logger Logger
	now    func() time.Time
}

// NewStatePublisher creates a publisher for agentID's state topics.
// logger may be nil.
func NewStatePublisher(pub Publisher, agentID string, logger Logger) *StatePublisher {
	return &StatePublisher{
		pub:    pub,
		topics: Topics{AgentID: agentID},
		logger: logger,
		now:    time.Now,
	}
}

// Listen publishes s. It is a statestore.Listener.
func (p *StatePublisher) Listen(_ context.Context, s sensor.State) {
	payload, err := json.Marshal(StatePayload{
		AgentID:   p.topics.AgentID,
		SensorID:  s.SensorID,
		Sensor:    s.SensorName,
		Value:     s.Value,
		Timestamp: p.now().UTC().Format(time.RFC3339),
	})
	if err == nil {
		err = p.pub.PublishRetained(p.topics.SensorState(s.SensorID), payload)
	}
	if err != nil && p.logger != nil {
		p.logger.Warn("failed to publish sensor state", "sensor_id", s.SensorID, "error", err)
	}
}

package mqtt

import (
	"fmt"
	"strconv"
)

// TopicPrefix is the root of every agent topic.
const TopicPrefix = "graylogic/agent"

// Topics builds the topics of one agent.
//
//	topics := mqtt.Topics{AgentID: "hall-01"}
//	topics.SensorState(12) // graylogic/agent/hall-01/state/12
type Topics struct {
	AgentID string
}

// Status returns the retained online/offline topic.
func (t Topics) Status() string {
	return fmt.Sprintf("%s/%s/status", TopicPrefix, t.AgentID)
}

// SensorState returns the retained state topic of a sensor.
func (t Topics) SensorState(sensorID int) string {
	return fmt.Sprintf("%s/%s/state/%s", TopicPrefix, t.AgentID, strconv.Itoa(sensorID))
}

// AllSensorStates matches every sensor state of the agent.
func (t Topics) AllSensorStates() string {
	return fmt.Sprintf("%s/%s/state/+", TopicPrefix, t.AgentID)
}

// AllAgents matches every topic of every agent.
func (Topics) AllAgents() string {
	return TopicPrefix + "/#"
}

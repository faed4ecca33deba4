// Package mqtt provides the agent's MQTT bus connection.
//
// It wraps paho.mqtt.golang with:
//   - connection management with auto-reconnect and subscription restore
//   - a retained agent status topic with Last Will and Testament
//   - validated publish and subscribe with panic-safe handlers
//   - StatePublisher, a state store listener that publishes every
//     committed sensor change as retained JSON
//
// The MQTT command protocol (internal/command/mqttcmd) uses Client as its
// transport.
//
// # Topics
//
//	graylogic/agent/{agent_id}/status               retained online/offline
//	graylogic/agent/{agent_id}/state/{sensor_id}    retained sensor state
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT, agentID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	handler.AddListener(mqtt.NewStatePublisher(client, agentID, logger).Listen)
package mqtt

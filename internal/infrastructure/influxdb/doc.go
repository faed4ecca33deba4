// Package influxdb exports committed sensor states to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, health monitoring and a state writer that turns sensor
// states into points of the "sensor_state" measurement.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, agentID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	handler.AddListener(client.StateListener(kindOf))
//
// # Points
//
// Each state becomes one point tagged with agent_id, sensor_id, sensor and
// kind. Numeric values (range and level sensors) are written to the float
// field "value"; everything else to the string field "state". Unknown
// placeholders are not written.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched; failures are reported through the SetOnError callback.
package influxdb

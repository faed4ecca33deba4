// Package statestore holds the last known state of every sensor.
//
// The Handler deduplicates: putting a state equal to the stored one is a
// no-op, so continuous polling of an unchanged device produces no writes
// and no notifications. Listeners registered with AddListener are told
// about real changes only, from a single dispatcher goroutine, so Put
// never blocks on downstream sinks such as history or MQTT.
package statestore

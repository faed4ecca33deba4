// Package deployment builds the static topology an agent runs: devices,
// their command definitions, the built commands, and the sensors reading
// through them.
//
// A Deployment is constructed once from a Definition and is read-only
// afterwards, so lookups need no locking. Every inconsistency in the
// definition (an unresolvable command, a device name bound to two ids, a
// range sensor without bounds) fails construction: an agent never starts
// with a broken topology.
//
// Lookups are linear scans. Deployments are small and built once, so no
// index structures are kept.
package deployment

// Package status is the caching and change-notification core for a fleet
// of externally managed runtime units (containers).
//
// The package tracks one Record per unit, deduplicates in-flight probes,
// refreshes known units on a slow global sweep plus optional fast per-unit
// monitors, and publishes an Event only when a unit's observable state
// actually differs from the previous record.
//
// The probe itself is not implemented here. Production: adapter/docker.Prober.
// Testing: adapter/fake.Prober.
package status

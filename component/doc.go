// Package component defines the lifecycle contract for the long-lived parts
// of a medpipe process (the HTTP server, telemetry exporters, upstream
// capabilities) and a registry that starts them in order, stops them in
// reverse and aggregates their health.
package component

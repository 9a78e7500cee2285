/*
Package observability provides Prometheus instrumentation for the wattle engine.

Metrics exposes run and node collectors as lifecycle hooks, and Join fans one
engine's lifecycle events out to several hook sets, so logging and metrics can
observe the same run.
*/
package observability

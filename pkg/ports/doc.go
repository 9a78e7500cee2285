/*
Package ports defines the driven ports (interfaces) for the Wattle engine.

These interfaces decouple the execution core from external implementations,
allowing the engine to record run traces to various storage backends.

# Key Interfaces

  - RunRecorder: Responsible for persisting and loading run Traces.
*/
package ports

/*
Package graph contains the core model of the Wattle engine: state schemas,
compiled graphs, and the contracts nodes and routers implement.

A graph is built once, validated eagerly, and is immutable afterwards, so a
single compiled graph is safe to share across any number of concurrent runs.
Mutable data lives in State values owned by individual runs.

# Key Entities

  - Schema / Field: declares the shared state fields and the merge rule
    (reducer) folding a node's partial update into each field.
  - State / Update: an ordered snapshot of the shared state, and the partial
    delta a node returns. Merging never mutates the previous snapshot.
  - Builder / Graph: registration of nodes and edges, compile-time validation,
    and successor resolution (unconditional or label-routed).
  - StepEvent / LifecycleHooks: the per-step observability unit and the
    callbacks an engine fires around a run.
*/
package graph

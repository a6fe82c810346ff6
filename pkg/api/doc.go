// Package api contains the core building blocks used by the formic form
// engine. It provides the low-level primitives for declaring schemas,
// transforming inbound messages, and observing engine behavior.
//
// Most users interact with the higher-level formic package, which re-exports
// selected types and helpers from this package. The api package is intended
// for advanced use cases, custom integrations, or contributors extending the
// engine itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Schema definitions and fields
//   - Input transformers
//   - Sessions and turns
//   - Observability
//
// # Schema Definitions
//
// A schema definition describes one form: its globally unique name and the
// ordered sequence of fields to collect. Declaration order is collection
// order. Definitions are immutable once registered with an engine; the
// engine resolves each field's transformer exactly once at registration and
// reuses the resolved form for every session.
//
// # Input Transformers
//
// A Transformer decides, for one inbound message, whether the current field
// accepts a value and which value that is. Transformer is a closed sum of
// three variants:
//
//   - Predicate: pure match-and-coerce over the message; parse failures are
//     rejections, never crashes.
//   - SyncFunc: a user function with access to the full turn context; only
//     a literal accepted=false return rejects.
//   - AsyncFunc: like SyncFunc but may perform I/O; its error return is a
//     turn failure rather than a rejection.
//
// Fields that declare no transformer fall back to a fixed table keyed by
// the field's type (text, int, float, date, datetime, time of day, photo,
// document, whole message).
//
// # Sessions and Turns
//
// A session is one in-progress conversation collecting values against a
// schema. Its persisted state is the schema name, the current field index,
// and the values accepted so far. A turn is one inbound message evaluated
// against the current field: it is either ignored (no session, wrong
// schema), rejected (state untouched, optional error text sent), advanced
// (value stored, next field prompted), or submitted (all fields collected,
// completion callback invoked).
//
// # Observability
//
// The Observer interface reports form and turn lifecycle events. Ready-made
// implementations cover structured logging (log/slog), in-memory counters,
// and Prometheus export; NewCompositeObserver combines several.
//
// Most applications should start from the formic package, using the
// SchemaBuilder and engine constructors provided there.
package api

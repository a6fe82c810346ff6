// Package formic provides a lightweight, embeddable conversational form
// engine for Go.
//
// Formic drives a chat user through collecting one typed value per field
// across successive inbound messages: it validates each raw input, re-asks
// on rejection, and invokes a completion callback once every field of a
// schema has an accepted value. It is transport-agnostic — any turn-based
// messaging channel (a Telegram bot, a support widget, an SMS gateway) can
// sit in front of it — and integrates cleanly into existing codebases.
//
// # Core Concepts
//
// The Formic programming model is intentionally small and idiomatic:
//
//  1. Engine
//  2. SchemaBuilder
//  3. Transformer
//  4. Messenger
//  5. LocalChat
//
// # Engine
//
// The Engine holds registered schemas, persists per-session progress, and
// provides APIs to:
//   - start a form for a session
//   - handle inbound messages (accept, reject, or ignore each turn)
//   - read and clear session state
//
// Engines can be backed by different session stores:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//   - Redis
//
// Turns for one session are strictly serialized; independent sessions run
// concurrently. The session store is the single source of truth between
// turns, so an engine can be restarted without losing progress (with a
// durable store).
//
// # SchemaBuilder
//
// SchemaBuilder provides the declarative API used to define forms:
//
//	signup := formic.New("Signup").
//	    Field("name", formic.TypeText, "What's your name?").
//	    Field("age", formic.TypeInt, "How old are you?").
//	    OnSubmit(func(ctx context.Context, sub *formic.Submission) error {
//	        ...
//	    })
//
// Field declaration order is collection order. Schemas built this way are
// registered into an Engine before use and are immutable afterwards.
//
// Schemas can also be declared in YAML and loaded with LoadSchemaFile, with
// the submit callback attached in code.
//
// # Transformer
//
// A Transformer decides whether the current field accepts an inbound
// message, and coerces the raw input into the stored value. Every field
// type has a default (text, numbers, dates, photos, ...); custom
// transformers plug in as a pure Predicate, a SyncFunc, or an AsyncFunc.
//
// # Messenger
//
// The Messenger is the outbound half of your transport: Formic calls it to
// send field prompts and error texts, and nothing else. Inbound delivery is
// your router's job; Engine.Handler returns a per-schema handler made for
// router registration.
//
// # LocalChat
//
// LocalChat bundles an in-memory engine with a recording messenger into a
// process-local harness, useful for development and unit testing: start a
// form, feed it messages, and inspect the prompts it sent.
//
// For examples, see the /examples directory or the project README.
package formic

package api

import (
	"context"
)

// Messenger is the outbound half of the chat transport. The engine calls
// SendPrompt exactly once per field transition (unless the field has a
// custom entry action, which replaces the prompt).
type Messenger interface {
	// SendPrompt delivers a field prompt. markup is the field's declared
	// markup, or RemoveMarkup when the field declares none.
	SendPrompt(ctx context.Context, chatID int64, text string, markup Markup) error
}

// MessengerFunc adapts a function to the Messenger interface.
type MessengerFunc func(ctx context.Context, chatID int64, text string, markup Markup) error

func (f MessengerFunc) SendPrompt(ctx context.Context, chatID int64, text string, markup Markup) error {
	return f(ctx, chatID, text, markup)
}

// HandlerFunc is a turn handler scoped to one schema, suitable for
// registration with an external message router. It behaves like
// Engine.HandleMessage except that sessions recorded against a different
// schema yield OutcomeIgnored, so the router can try other handlers.
type HandlerFunc func(ctx context.Context, ref SessionRef, msg *Message) (*TurnResult, error)

// Engine drives conversations through schemas, one field per accepted turn.
//
// Schemas are registered once at startup and are read-only afterwards.
// Turns for the same session id are serialized by the engine; distinct
// sessions proceed independently.
type Engine interface {
	// RegisterSchema resolves and registers a schema definition. All
	// definition errors (duplicate schema name, duplicate field name,
	// field with neither prompt nor entry action, unresolvable
	// transformer) surface here, not at first use.
	RegisterSchema(def SchemaDefinition) error

	// BindSubmit attaches the completion callback to a registered schema.
	// Returns ErrSubmitAlreadyBound if the schema already has one.
	BindSubmit(schemaName string, fn SubmitFunc, clearOnComplete bool) error

	// Start creates (or restarts) a session for the schema and sends the
	// first field's prompt or runs its entry action.
	Start(ctx context.Context, schemaName string, ref SessionRef) error

	// HandleMessage evaluates one inbound message against the session's
	// current field. With no session for ref.SessionID, or a session owned
	// by an unregistered schema, the result is OutcomeIgnored.
	HandleMessage(ctx context.Context, ref SessionRef, msg *Message) (*TurnResult, error)

	// Handler returns a HandlerFunc scoped to the named schema.
	Handler(schemaName string) HandlerFunc

	// GetSession returns the state persisted for a session id.
	GetSession(ctx context.Context, sessionID string) (*SessionState, error)

	// ClearSession removes a session. Clearing an absent session is a
	// no-op.
	ClearSession(ctx context.Context, sessionID string) error

	// ListSessions returns sessions matching the filter, in no particular
	// order. A zero filter returns all sessions.
	ListSessions(ctx context.Context, filter SessionFilter) ([]SessionRecord, error)
}

// SessionFilter selects sessions for ListSessions. An empty SchemaName
// means "no filter".
type SessionFilter struct {
	SchemaName string
}

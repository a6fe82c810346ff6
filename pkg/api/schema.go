package api

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
)

var (
	// ErrSchemaExists is returned when a schema with the same name is
	// already registered.
	ErrSchemaExists = errors.New("schema already registered")

	// ErrUnknownSchema is returned when an operation names a schema that
	// was never registered.
	ErrUnknownSchema = errors.New("unknown schema")

	// ErrSessionNotFound is returned by GetSession when no session exists
	// for the given id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoSubmitCallback is returned when a form reaches its last field
	// but no submit callback was ever bound. This is a programming error,
	// not a user error.
	ErrNoSubmitCallback = errors.New("submit callback not bound")

	// ErrSubmitAlreadyBound is returned when BindSubmit is called for a
	// schema that already has a submit callback.
	ErrSubmitAlreadyBound = errors.New("submit callback already bound")
)

// FieldType selects the default transformer for a field that declares no
// explicit one. The set mirrors the usual inputs of a chat transport.
type FieldType string

const (
	TypeText      FieldType = "text"
	TypeInt       FieldType = "int"
	TypeFloat     FieldType = "float"
	TypeDate      FieldType = "date"      // "02.01.2006"
	TypeDateTime  FieldType = "datetime"  // "02.01.2006 15:04"
	TypeTimeOfDay FieldType = "timeofday" // "15:04"
	TypePhoto     FieldType = "photo"     // largest PhotoSize of the message
	TypeDocument  FieldType = "document"
	TypeMessage   FieldType = "message" // the whole inbound message
)

// PhotoSize is one resolution variant of an inbound photo.
type PhotoSize struct {
	FileID string
	Width  int
	Height int
}

// Document is an inbound file attachment.
type Document struct {
	FileID   string
	FileName string
	MimeType string
}

// Message is a transport-agnostic inbound chat message. A message with no
// text carries Text == "".
type Message struct {
	ChatID int64
	UserID int64
	Text   string

	// Photos holds the size variants of an attached photo, smallest first.
	Photos   []PhotoSize
	Document *Document
}

// Markup is opaque, transport-specific reply markup. The engine never
// inspects it; it is handed through to the Messenger as-is.
type Markup any

type removeMarkup struct{}

// RemoveMarkup is sent in place of a field's markup when the field declares
// none, asking the transport to drop any custom keyboard.
var RemoveMarkup Markup = removeMarkup{}

// SessionRef identifies one conversation. SessionID keys the session store;
// ChatID/UserID are handed to prompts, entry actions and the submit callback.
type SessionRef struct {
	SessionID string
	ChatID    int64
	UserID    int64
}

// EnterContext is passed to a field's custom entry action.
type EnterContext struct {
	Ref SessionRef

	// Values holds the values collected so far, keyed by field name.
	Values map[string]any
}

// EnterFunc is a custom entry action, invoked instead of sending the
// field's prompt when the field becomes current.
type EnterFunc func(ctx context.Context, enter *EnterContext) error

// FieldDefinition declares one unit of data to collect.
//
// Prompt and Enter are alternatives: at least one must be set, which is
// checked when the schema is registered. Transformer overrides the
// type-derived default; leaving it nil requires Type to have a default.
type FieldDefinition struct {
	Name   string
	Type   FieldType
	Prompt string
	Markup Markup

	// ErrorText is sent when a turn is rejected. If empty the user gets
	// no reaction and stays on the same field.
	ErrorText string

	Transformer Transformer
	Enter       EnterFunc
}

// SchemaDefinition describes a form as an ordered field sequence.
//
// Field order is collection order. Submit may be left nil and bound later
// via Engine.BindSubmit. Note the zero value of ClearOnComplete is false;
// the SchemaBuilder defaults it to true.
type SchemaDefinition struct {
	Name   string
	Fields []FieldDefinition

	Submit          SubmitFunc
	ClearOnComplete bool
}

// SessionState is the persisted progress of one conversation.
//
// Invariant: 0 <= FieldIndex <= number of schema fields, and the keys of
// Values are a subset of the schema's field names. FieldIndex == len(fields)
// only occurs for retained sessions after submission.
type SessionState struct {
	SchemaName string
	FieldIndex int
	Values     map[string]any
}

// SessionRecord pairs a session id with its state, as returned by
// ListSessions.
type SessionRecord struct {
	SessionID string
	State     *SessionState
}

// SessionHandle gives a submit callback access to the live session under
// its own id, for schemas that retain state after completion.
type SessionHandle interface {
	// Get returns the current session state, or ErrSessionNotFound if the
	// session was cleared.
	Get(ctx context.Context) (*SessionState, error)

	// Clear removes the session. Clearing an absent session is a no-op.
	Clear(ctx context.Context) error
}

// Submission is handed to the submit callback once every field of a schema
// has an accepted value.
type Submission struct {
	Schema string
	Ref    SessionRef

	// Values maps every field name of the schema to its last accepted value.
	Values map[string]any

	// Session operates on the session store entry for Ref.SessionID. When
	// the schema clears on completion the entry is already gone by the time
	// the callback runs; read submitted values from Values, not the store.
	Session SessionHandle
}

// Bind decodes the collected values onto dst, which must be a pointer to a
// struct (or map). Field names match via json tags.
func (s *Submission) Bind(dst any) error {
	data, err := sonic.Marshal(s.Values)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, dst)
}

// SubmitFunc is the completion callback bound to a schema.
type SubmitFunc func(ctx context.Context, sub *Submission) error

// Outcome classifies the result of handling one inbound message.
type Outcome string

const (
	// OutcomeIgnored: no session, or the session belongs to another schema.
	OutcomeIgnored Outcome = "IGNORED"

	// OutcomeRejected: the current field's transformer did not accept the
	// message; session state is unchanged.
	OutcomeRejected Outcome = "REJECTED"

	// OutcomeAdvanced: the value was accepted and the session moved to the
	// next field.
	OutcomeAdvanced Outcome = "ADVANCED"

	// OutcomeSubmitted: the last field was accepted and the submit
	// callback ran.
	OutcomeSubmitted Outcome = "SUBMITTED"

	// OutcomeFailed: the turn hit an error (failing async transformer,
	// store write, prompt send or entry action) and was rolled back.
	OutcomeFailed Outcome = "FAILED"
)

// TurnResult reports what a turn did.
type TurnResult struct {
	Outcome Outcome

	// Field and Index identify the field the message was evaluated
	// against. Unset when Outcome is OutcomeIgnored.
	Field string
	Index int

	// Value is the accepted value for ADVANCED and SUBMITTED turns.
	Value any
}

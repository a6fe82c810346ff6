package formic

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/formic/internal/engine"
	"github.com/petrijr/formic/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine           = api.Engine
	SchemaDefinition = api.SchemaDefinition
	FieldDefinition  = api.FieldDefinition
	FieldType        = api.FieldType
	Message          = api.Message
	PhotoSize        = api.PhotoSize
	Document         = api.Document
	Markup           = api.Markup
	Messenger        = api.Messenger
	MessengerFunc    = api.MessengerFunc
	SessionRef       = api.SessionRef
	SessionState     = api.SessionState
	SessionRecord    = api.SessionRecord
	SessionFilter    = api.SessionFilter
	Transformer      = api.Transformer
	Predicate        = api.Predicate
	SyncFunc         = api.SyncFunc
	AsyncFunc        = api.AsyncFunc
	TurnContext      = api.TurnContext
	TurnResult       = api.TurnResult
	Outcome          = api.Outcome
	Submission       = api.Submission
	SubmitFunc       = api.SubmitFunc
	EnterContext     = api.EnterContext
	EnterFunc        = api.EnterFunc
	HandlerFunc      = api.HandlerFunc
	Observer         = api.Observer

	LoggingObserver    = api.LoggingObserver
	NoopObserver       = api.NoopObserver
	CompositeObserver  = api.CompositeObserver
	BasicMetrics       = api.BasicMetrics
	PrometheusObserver = api.PrometheusObserver
)

// Re-export common observer helpers.

var (
	NewLoggingObserver    = api.NewLoggingObserver
	NewCompositeObserver  = api.NewCompositeObserver
	NewPrometheusObserver = api.NewPrometheusObserver
)

// Re-export the built-in transformers.

var (
	TextPredicate      = api.TextPredicate
	IntPredicate       = api.IntPredicate
	FloatPredicate     = api.FloatPredicate
	DatePredicate      = api.DatePredicate
	DateTimePredicate  = api.DateTimePredicate
	TimeOfDayPredicate = api.TimeOfDayPredicate
	PhotoPredicate     = api.PhotoPredicate
	DocumentPredicate  = api.DocumentPredicate
	MessagePredicate   = api.MessagePredicate

	DefaultTransformer = api.DefaultTransformer
)

// Re-export field types and outcomes for convenience.

const (
	TypeText      = api.TypeText
	TypeInt       = api.TypeInt
	TypeFloat     = api.TypeFloat
	TypeDate      = api.TypeDate
	TypeDateTime  = api.TypeDateTime
	TypeTimeOfDay = api.TypeTimeOfDay
	TypePhoto     = api.TypePhoto
	TypeDocument  = api.TypeDocument
	TypeMessage   = api.TypeMessage

	OutcomeIgnored   = api.OutcomeIgnored
	OutcomeRejected  = api.OutcomeRejected
	OutcomeAdvanced  = api.OutcomeAdvanced
	OutcomeSubmitted = api.OutcomeSubmitted
	OutcomeFailed    = api.OutcomeFailed
)

// Re-export sentinel errors and the keyboard-removal marker.

var (
	ErrSchemaExists       = api.ErrSchemaExists
	ErrUnknownSchema      = api.ErrUnknownSchema
	ErrSessionNotFound    = api.ErrSessionNotFound
	ErrNoSubmitCallback   = api.ErrNoSubmitCallback
	ErrSubmitAlreadyBound = api.ErrSubmitAlreadyBound

	RemoveMarkup = api.RemoveMarkup
)

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEngine returns an Engine backed by an in-memory session store.
func NewInMemoryEngine(m Messenger) Engine {
	return engine.NewInMemoryEngine(m)
}

// NewInMemoryEngineWithObserver returns an in-memory Engine with the given Observer.
func NewInMemoryEngineWithObserver(m Messenger, obs Observer) Engine {
	return engine.NewInMemoryEngineWithObserver(m, obs)
}

// NewSQLiteEngine returns an Engine that persists sessions in a SQLite
// database. Schema definitions always stay in-memory.
func NewSQLiteEngine(db *sql.DB, m Messenger) (Engine, error) {
	return engine.NewSQLiteEngine(db, m)
}

// NewSQLiteEngineWithObserver returns a SQLite-backed Engine with the given Observer.
func NewSQLiteEngineWithObserver(db *sql.DB, m Messenger, obs Observer) (Engine, error) {
	return engine.NewSQLiteEngineWithObserver(db, m, obs)
}

// NewRedisEngine returns an Engine that persists sessions in Redis.
func NewRedisEngine(client *redis.Client, m Messenger) Engine {
	return engine.NewRedisEngine(client, m)
}

// NewRedisEngineWithObserver returns a Redis-backed Engine with the given Observer.
func NewRedisEngineWithObserver(client *redis.Client, m Messenger, obs Observer) Engine {
	return engine.NewRedisEngineWithObserver(client, m, obs)
}

// Convenience helpers that just forward to the underlying Engine.

// Start begins a form for the given session.
func Start(ctx context.Context, eng Engine, schemaName string, ref SessionRef) error {
	return eng.Start(ctx, schemaName, ref)
}

// HandleMessage evaluates one inbound message against the session's
// current field.
func HandleMessage(ctx context.Context, eng Engine, ref SessionRef, msg *Message) (*TurnResult, error) {
	return eng.HandleMessage(ctx, ref, msg)
}

// GetSession fetches the persisted state for a session id.
func GetSession(ctx context.Context, eng Engine, sessionID string) (*SessionState, error) {
	return eng.GetSession(ctx, sessionID)
}

// ListSessions lists sessions according to the given filter.
func ListSessions(ctx context.Context, eng Engine, filter SessionFilter) ([]SessionRecord, error) {
	return eng.ListSessions(ctx, filter)
}

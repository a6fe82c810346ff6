package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/formic/internal/persistence"
	"github.com/petrijr/formic/internal/turnlock"
	"github.com/petrijr/formic/pkg/api"
)

// engineImpl drives form sessions against registered schemas. All session
// state lives in the store; the engine keeps nothing in memory between
// turns, so any number of engine instances may share one store as long as
// they also share the session key space fairly (one instance per session).
type engineImpl struct {
	registry  *schemaRegistry
	sessions  persistence.SessionStore
	messenger api.Messenger
	observer  api.Observer
	locks     *turnlock.Keyed
}

// Config describes how to construct an engineImpl.
// Only used inside this package; external callers use the helper functions.
type Config struct {
	Sessions  persistence.SessionStore
	Messenger api.Messenger
	Observer  api.Observer
}

func NewInMemoryEngine(m api.Messenger) api.Engine {
	return NewEngineWithConfig(Config{
		Sessions:  persistence.NewInMemoryStore(),
		Messenger: m,
	})
}

func NewInMemoryEngineWithObserver(m api.Messenger, obs api.Observer) api.Engine {
	return NewEngineWithConfig(Config{
		Sessions:  persistence.NewInMemoryStore(),
		Messenger: m,
		Observer:  obs,
	})
}

func NewSQLiteEngine(db *sql.DB, m api.Messenger) (api.Engine, error) {
	store, err := persistence.NewSQLiteSessionStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfig(Config{
		Sessions:  store,
		Messenger: m,
	}), nil
}

func NewSQLiteEngineWithObserver(db *sql.DB, m api.Messenger, obs api.Observer) (api.Engine, error) {
	store, err := persistence.NewSQLiteSessionStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfig(Config{
		Sessions:  store,
		Messenger: m,
		Observer:  obs,
	}), nil
}

func NewRedisEngine(client *redis.Client, m api.Messenger) api.Engine {
	return NewEngineWithConfig(Config{
		Sessions:  persistence.NewRedisSessionStore(client, "formic:"),
		Messenger: m,
	})
}

func NewRedisEngineWithObserver(client *redis.Client, m api.Messenger, obs api.Observer) api.Engine {
	return NewEngineWithConfig(Config{
		Sessions:  persistence.NewRedisSessionStore(client, "formic:"),
		Messenger: m,
		Observer:  obs,
	})
}

// NewEngineWithConfig creates a new Engine using the given configuration.
func NewEngineWithConfig(cfg Config) api.Engine {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &engineImpl{
		registry:  newSchemaRegistry(),
		sessions:  cfg.Sessions,
		messenger: cfg.Messenger,
		observer:  obs,
		locks:     turnlock.New(),
	}
}

func (e *engineImpl) RegisterSchema(def api.SchemaDefinition) error {
	return e.registry.register(def)
}

func (e *engineImpl) BindSubmit(schemaName string, fn api.SubmitFunc, clearOnComplete bool) error {
	return e.registry.bindSubmit(schemaName, fn, clearOnComplete)
}

func (e *engineImpl) Start(ctx context.Context, schemaName string, ref api.SessionRef) error {
	schema, ok := e.registry.get(schemaName)
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrUnknownSchema, schemaName)
	}

	release, err := e.locks.Acquire(ctx, ref.SessionID)
	if err != nil {
		return err
	}
	defer release()

	sess := api.SessionInfo{Schema: schema.name, Ref: ref}
	e.observer.OnFormStart(ctx, sess)

	st := &api.SessionState{
		SchemaName: schema.name,
		FieldIndex: 0,
		Values:     map[string]any{},
	}
	if err := e.sessions.SaveSession(ctx, ref.SessionID, st); err != nil {
		e.observer.OnFormFailed(ctx, sess, err)
		return err
	}

	if err := e.enterField(ctx, schema.fields[0], ref, st.Values); err != nil {
		// The first prompt never went out; undo the start so the next
		// Start begins cleanly.
		_ = e.sessions.ClearSession(ctx, ref.SessionID)
		e.observer.OnFormFailed(ctx, sess, err)
		return err
	}

	return nil
}

func (e *engineImpl) HandleMessage(ctx context.Context, ref api.SessionRef, msg *api.Message) (*api.TurnResult, error) {
	return e.handleTurn(ctx, "", ref, msg)
}

func (e *engineImpl) Handler(schemaName string) api.HandlerFunc {
	return func(ctx context.Context, ref api.SessionRef, msg *api.Message) (*api.TurnResult, error) {
		return e.handleTurn(ctx, schemaName, ref, msg)
	}
}

func (e *engineImpl) GetSession(ctx context.Context, sessionID string) (*api.SessionState, error) {
	st, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, persistence.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", api.ErrSessionNotFound, sessionID)
		}
		return nil, err
	}
	return st, nil
}

func (e *engineImpl) ClearSession(ctx context.Context, sessionID string) error {
	return e.sessions.ClearSession(ctx, sessionID)
}

func (e *engineImpl) ListSessions(ctx context.Context, filter api.SessionFilter) ([]api.SessionRecord, error) {
	return e.sessions.ListSessions(ctx, persistence.SessionFilter{
		SchemaName: filter.SchemaName,
	})
}

// handleTurn evaluates one inbound message. schemaFilter narrows the gate
// to a single schema (Handler); empty means any registered schema
// (HandleMessage). The session store write is the commit point of a turn:
// everything before it leaves the session untouched, and a failure after it
// (a prompt that cannot be sent) rolls the write back.
func (e *engineImpl) handleTurn(ctx context.Context, schemaFilter string, ref api.SessionRef, msg *api.Message) (*api.TurnResult, error) {
	release, err := e.locks.Acquire(ctx, ref.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := e.sessions.GetSession(ctx, ref.SessionID)
	if err != nil {
		if errors.Is(err, persistence.ErrSessionNotFound) {
			return &api.TurnResult{Outcome: api.OutcomeIgnored}, nil
		}
		return nil, err
	}

	// Gate: the session must belong to the schema under evaluation. A
	// mismatch is silently not-a-match so a router can try other handlers,
	// and so several schemas can share one session store without
	// cross-talk.
	if schemaFilter != "" && st.SchemaName != schemaFilter {
		return &api.TurnResult{Outcome: api.OutcomeIgnored}, nil
	}

	schema, ok := e.registry.get(st.SchemaName)
	if !ok {
		// The session belongs to some other subsystem sharing the store.
		return &api.TurnResult{Outcome: api.OutcomeIgnored}, nil
	}

	if st.FieldIndex == len(schema.fields) {
		// Retained session of an already-submitted form.
		return &api.TurnResult{Outcome: api.OutcomeIgnored}, nil
	}
	if st.FieldIndex < 0 || st.FieldIndex > len(schema.fields) {
		return nil, fmt.Errorf("session %s: field index %d out of range for schema %s",
			ref.SessionID, st.FieldIndex, schema.name)
	}

	field := schema.fields[st.FieldIndex]
	sess := api.SessionInfo{Schema: schema.name, Ref: ref}

	e.observer.OnTurnStart(ctx, sess, field.def.Name, st.FieldIndex)
	startTime := time.Now()

	value, accepted, err := e.runTransformer(ctx, field.transformer, ref, msg, st.Values)
	if err != nil {
		return e.failTurn(ctx, sess, field.def.Name, st.FieldIndex, startTime, err)
	}

	if !accepted {
		if field.def.ErrorText != "" {
			if err := e.messenger.SendPrompt(ctx, ref.ChatID, field.def.ErrorText, nil); err != nil {
				return e.failTurn(ctx, sess, field.def.Name, st.FieldIndex, startTime, err)
			}
		}
		e.observer.OnTurnCompleted(ctx, sess, field.def.Name, st.FieldIndex, api.OutcomeRejected, nil, time.Since(startTime))
		return &api.TurnResult{
			Outcome: api.OutcomeRejected,
			Field:   field.def.Name,
			Index:   st.FieldIndex,
		}, nil
	}

	values := maps.Clone(st.Values)
	if values == nil {
		values = map[string]any{}
	}
	values[field.def.Name] = value
	next := st.FieldIndex + 1

	if next < len(schema.fields) {
		if err := e.advance(ctx, schema, st, ref, values, next); err != nil {
			return e.failTurn(ctx, sess, field.def.Name, st.FieldIndex, startTime, err)
		}
		e.observer.OnTurnCompleted(ctx, sess, field.def.Name, st.FieldIndex, api.OutcomeAdvanced, nil, time.Since(startTime))
		return &api.TurnResult{
			Outcome: api.OutcomeAdvanced,
			Field:   field.def.Name,
			Index:   st.FieldIndex,
			Value:   value,
		}, nil
	}

	// All fields collected.
	submitErr, err := e.submit(ctx, schema, ref, values)
	if err != nil {
		return e.failTurn(ctx, sess, field.def.Name, st.FieldIndex, startTime, err)
	}

	result := &api.TurnResult{
		Outcome: api.OutcomeSubmitted,
		Field:   field.def.Name,
		Index:   st.FieldIndex,
		Value:   value,
	}
	e.observer.OnTurnCompleted(ctx, sess, field.def.Name, st.FieldIndex, api.OutcomeSubmitted, submitErr, time.Since(startTime))
	if submitErr != nil {
		e.observer.OnFormFailed(ctx, sess, submitErr)
		return result, submitErr
	}
	e.observer.OnFormCompleted(ctx, sess)
	return result, nil
}

// advance persists the moved cursor, then prompts the next field. Persist
// comes first: turn N+1 may only be evaluated once turn N's mutation is
// durable. If the prompt cannot be sent the previous state is written back
// so the turn fails atomically.
func (e *engineImpl) advance(ctx context.Context, schema *resolvedSchema, prev *api.SessionState, ref api.SessionRef, values map[string]any, next int) error {
	st := &api.SessionState{
		SchemaName: schema.name,
		FieldIndex: next,
		Values:     values,
	}
	if err := e.sessions.SaveSession(ctx, ref.SessionID, st); err != nil {
		return err
	}

	if err := e.enterField(ctx, schema.fields[next], ref, values); err != nil {
		_ = e.sessions.SaveSession(ctx, ref.SessionID, prev)
		return err
	}
	return nil
}

// submit finishes the session and calls the bound callback. The first
// return value is the callback's own error; the second is an engine error
// that aborted the turn before the callback could run.
//
// When the schema clears on completion, the session is removed before the
// callback is invoked: a failing callback must not leave a stale session
// behind that would double-submit on retry. Callers that need the submitted
// values afterwards read them from the Submission, not from the store.
func (e *engineImpl) submit(ctx context.Context, schema *resolvedSchema, ref api.SessionRef, values map[string]any) (submitErr, err error) {
	if schema.submit == nil {
		return nil, fmt.Errorf("%w: schema %s", api.ErrNoSubmitCallback, schema.name)
	}

	if schema.clearOnComplete {
		if err := e.sessions.ClearSession(ctx, ref.SessionID); err != nil {
			return nil, err
		}
	} else {
		final := &api.SessionState{
			SchemaName: schema.name,
			FieldIndex: len(schema.fields),
			Values:     values,
		}
		if err := e.sessions.SaveSession(ctx, ref.SessionID, final); err != nil {
			return nil, err
		}
	}

	sub := &api.Submission{
		Schema:  schema.name,
		Ref:     ref,
		Values:  values,
		Session: &sessionHandle{store: e.sessions, id: ref.SessionID},
	}
	return schema.submit(ctx, sub), nil
}

// enterField runs the field's custom entry action, or sends its prompt.
// Exactly one of the two happens per field transition. Fields without
// markup get RemoveMarkup, dropping any keyboard a previous field showed.
func (e *engineImpl) enterField(ctx context.Context, field resolvedField, ref api.SessionRef, values map[string]any) error {
	if field.def.Enter != nil {
		enter := &api.EnterContext{
			Ref:    ref,
			Values: maps.Clone(values),
		}
		return field.def.Enter(ctx, enter)
	}

	markup := field.def.Markup
	if markup == nil {
		markup = api.RemoveMarkup
	}
	return e.messenger.SendPrompt(ctx, ref.ChatID, field.def.Prompt, markup)
}

func (e *engineImpl) runTransformer(ctx context.Context, t api.Transformer, ref api.SessionRef, msg *api.Message, values map[string]any) (value any, accepted bool, err error) {
	switch t := t.(type) {
	case api.Predicate:
		v, err := t.Fn(msg)
		if err != nil {
			// Coercion failure is an ordinary rejection; the user
			// re-enters the value.
			return nil, false, nil
		}
		if v == nil || v == false {
			return nil, false, nil
		}
		return v, true, nil

	case api.SyncFunc:
		v, ok := t.Fn(e.turnContext(ref, msg, values))
		return v, ok, nil

	case api.AsyncFunc:
		return t.Fn(ctx, e.turnContext(ref, msg, values))

	default:
		// Unreachable: registration rejects anything else.
		return nil, false, fmt.Errorf("unrecognized transformer %T", t)
	}
}

func (e *engineImpl) turnContext(ref api.SessionRef, msg *api.Message, values map[string]any) *api.TurnContext {
	return &api.TurnContext{
		Message: msg,
		Ref:     ref,
		Values:  maps.Clone(values),
	}
}

func (e *engineImpl) failTurn(ctx context.Context, sess api.SessionInfo, fieldName string, fieldIndex int, startTime time.Time, err error) (*api.TurnResult, error) {
	e.observer.OnTurnCompleted(ctx, sess, fieldName, fieldIndex, api.OutcomeFailed, err, time.Since(startTime))
	e.observer.OnFormFailed(ctx, sess, err)
	return &api.TurnResult{
		Outcome: api.OutcomeFailed,
		Field:   fieldName,
		Index:   fieldIndex,
	}, err
}

// sessionHandle exposes the store entry for one session id to submit
// callbacks.
type sessionHandle struct {
	store persistence.SessionStore
	id    string
}

var _ api.SessionHandle = (*sessionHandle)(nil)

func (h *sessionHandle) Get(ctx context.Context) (*api.SessionState, error) {
	st, err := h.store.GetSession(ctx, h.id)
	if err != nil {
		if errors.Is(err, persistence.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", api.ErrSessionNotFound, h.id)
		}
		return nil, err
	}
	return st, nil
}

func (h *sessionHandle) Clear(ctx context.Context) error {
	return h.store.ClearSession(ctx, h.id)
}

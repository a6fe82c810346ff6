package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// SessionInfo identifies a session for observer callbacks.
type SessionInfo struct {
	Schema string
	Ref    SessionRef
}

// Observer receives callbacks from the form engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay turn handling.
type Observer interface {
	// OnFormStart is called once when Start creates a session, before the
	// first prompt is sent.
	OnFormStart(ctx context.Context, sess SessionInfo)

	// OnFormCompleted is called after the submit callback returns without
	// error.
	OnFormCompleted(ctx context.Context, sess SessionInfo)

	// OnFormFailed is called when a turn fails with an error: a failing
	// entry action, prompt send, async transformer or submit callback.
	OnFormFailed(ctx context.Context, sess SessionInfo, err error)

	// OnTurnStart is called before the current field's transformer runs.
	// fieldIndex is the 0-based index into the schema's fields.
	OnTurnStart(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int)

	// OnTurnCompleted is called after a turn ends, for accepted, rejected
	// and failed (err != nil) turns alike.
	OnTurnCompleted(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int, outcome Outcome, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnFormStart(ctx context.Context, sess SessionInfo)                {}
func (NoopObserver) OnFormCompleted(ctx context.Context, sess SessionInfo)            {}
func (NoopObserver) OnFormFailed(ctx context.Context, sess SessionInfo, err error)    {}
func (NoopObserver) OnTurnStart(ctx context.Context, sess SessionInfo, f string, i int) {}
func (NoopObserver) OnTurnCompleted(ctx context.Context, sess SessionInfo, f string, i int, o Outcome, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnFormStart(ctx context.Context, sess SessionInfo) {
	for _, o := range c.observers {
		o.OnFormStart(ctx, sess)
	}
}

func (c *CompositeObserver) OnFormCompleted(ctx context.Context, sess SessionInfo) {
	for _, o := range c.observers {
		o.OnFormCompleted(ctx, sess)
	}
}

func (c *CompositeObserver) OnFormFailed(ctx context.Context, sess SessionInfo, err error) {
	for _, o := range c.observers {
		o.OnFormFailed(ctx, sess, err)
	}
}

func (c *CompositeObserver) OnTurnStart(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int) {
	for _, o := range c.observers {
		o.OnTurnStart(ctx, sess, fieldName, fieldIndex)
	}
}

func (c *CompositeObserver) OnTurnCompleted(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int, outcome Outcome, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnTurnCompleted(ctx, sess, fieldName, fieldIndex, outcome, err, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs form / turn lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnFormStart(ctx context.Context, sess SessionInfo) {
	o.Logger.InfoContext(ctx, "form_start",
		slog.String("schema", sess.Schema),
		slog.String("session_id", sess.Ref.SessionID),
	)
}

func (o *LoggingObserver) OnFormCompleted(ctx context.Context, sess SessionInfo) {
	o.Logger.InfoContext(ctx, "form_completed",
		slog.String("schema", sess.Schema),
		slog.String("session_id", sess.Ref.SessionID),
	)
}

func (o *LoggingObserver) OnFormFailed(ctx context.Context, sess SessionInfo, err error) {
	o.Logger.ErrorContext(ctx, "form_failed",
		slog.String("schema", sess.Schema),
		slog.String("session_id", sess.Ref.SessionID),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnTurnStart(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int) {
	o.Logger.DebugContext(ctx, "turn_start",
		slog.String("schema", sess.Schema),
		slog.String("session_id", sess.Ref.SessionID),
		slog.String("field", fieldName),
		slog.Int("field_index", fieldIndex),
	)
}

func (o *LoggingObserver) OnTurnCompleted(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int, outcome Outcome, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "turn_completed",
		slog.String("schema", sess.Schema),
		slog.String("session_id", sess.Ref.SessionID),
		slog.String("field", fieldName),
		slog.Int("field_index", fieldIndex),
		slog.String("outcome", string(outcome)),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate turn durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	formsStarted      atomic.Int64
	formsCompleted    atomic.Int64
	formsFailed       atomic.Int64
	turnsAccepted     atomic.Int64
	turnsRejected     atomic.Int64
	totalTurnDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	FormsStarted   int64
	FormsCompleted int64
	FormsFailed    int64
	FormsInFlight  int64

	TurnsAccepted   int64
	TurnsRejected   int64
	AvgTurnDuration time.Duration
}

func (m *BasicMetrics) OnFormStart(ctx context.Context, sess SessionInfo) {
	m.formsStarted.Add(1)
}

func (m *BasicMetrics) OnFormCompleted(ctx context.Context, sess SessionInfo) {
	m.formsCompleted.Add(1)
}

func (m *BasicMetrics) OnFormFailed(ctx context.Context, sess SessionInfo, err error) {
	m.formsFailed.Add(1)
}

func (m *BasicMetrics) OnTurnCompleted(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int, outcome Outcome, err error, d time.Duration) {
	switch outcome {
	case OutcomeAdvanced, OutcomeSubmitted:
		m.turnsAccepted.Add(1)
		m.totalTurnDuration.Add(d.Nanoseconds())
	case OutcomeRejected:
		m.turnsRejected.Add(1)
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.formsStarted.Load()
	completed := m.formsCompleted.Load()
	failed := m.formsFailed.Load()
	accepted := m.turnsAccepted.Load()
	rejected := m.turnsRejected.Load()
	totalNs := m.totalTurnDuration.Load()

	var avg time.Duration
	if accepted > 0 {
		avg = time.Duration(totalNs / accepted)
	}

	return BasicMetricsSnapshot{
		FormsStarted:    started,
		FormsCompleted:  completed,
		FormsFailed:     failed,
		FormsInFlight:   started - completed - failed,
		TurnsAccepted:   accepted,
		TurnsRejected:   rejected,
		AvgTurnDuration: avg,
	}
}

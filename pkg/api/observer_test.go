package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

//
// Helpers
//

// testObserver is a simple Observer implementation used to verify fan-out
// behavior.
type testObserver struct {
	mu sync.Mutex

	starts    int
	completes int
	fails     int

	turnStarts    int
	turnCompletes int

	lastFail struct {
		Sess SessionInfo
		Err  error
	}
	lastTurnComplete struct {
		Sess      SessionInfo
		FieldName string
		Outcome   Outcome
		Err       error
		Duration  time.Duration
	}
}

func (o *testObserver) OnFormStart(ctx context.Context, sess SessionInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts++
}

func (o *testObserver) OnFormCompleted(ctx context.Context, sess SessionInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completes++
}

func (o *testObserver) OnFormFailed(ctx context.Context, sess SessionInfo, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fails++
	o.lastFail.Sess = sess
	o.lastFail.Err = err
}

func (o *testObserver) OnTurnStart(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turnStarts++
}

func (o *testObserver) OnTurnCompleted(ctx context.Context, sess SessionInfo, fieldName string, fieldIndex int, outcome Outcome, err error, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turnCompletes++
	o.lastTurnComplete.Sess = sess
	o.lastTurnComplete.FieldName = fieldName
	o.lastTurnComplete.Outcome = outcome
	o.lastTurnComplete.Err = err
	o.lastTurnComplete.Duration = d
}

//
// Tests
//

func TestNewCompositeObserver_Collapses(t *testing.T) {
	if _, ok := NewCompositeObserver().(NoopObserver); !ok {
		t.Fatalf("no observers should collapse to NoopObserver")
	}
	if _, ok := NewCompositeObserver(nil, nil).(NoopObserver); !ok {
		t.Fatalf("all-nil observers should collapse to NoopObserver")
	}

	single := &testObserver{}
	if got := NewCompositeObserver(nil, single); got != single {
		t.Fatalf("single observer should be returned as-is, got %T", got)
	}
}

func TestCompositeObserver_FansOut(t *testing.T) {
	a := &testObserver{}
	b := &testObserver{}
	obs := NewCompositeObserver(a, nil, b)

	ctx := context.Background()
	sess := SessionInfo{Schema: "signup", Ref: SessionRef{SessionID: "s1", ChatID: 1, UserID: 2}}
	failErr := errors.New("boom")

	obs.OnFormStart(ctx, sess)
	obs.OnTurnStart(ctx, sess, "name", 0)
	obs.OnTurnCompleted(ctx, sess, "name", 0, OutcomeAdvanced, nil, 5*time.Millisecond)
	obs.OnFormCompleted(ctx, sess)
	obs.OnFormFailed(ctx, sess, failErr)

	for _, o := range []*testObserver{a, b} {
		if o.starts != 1 || o.completes != 1 || o.fails != 1 || o.turnStarts != 1 || o.turnCompletes != 1 {
			t.Fatalf("events not fanned out: %+v", o)
		}
		if o.lastTurnComplete.Outcome != OutcomeAdvanced || o.lastTurnComplete.FieldName != "name" {
			t.Fatalf("unexpected turn completion: %+v", o.lastTurnComplete)
		}
		if !errors.Is(o.lastFail.Err, failErr) {
			t.Fatalf("failure error not forwarded: %v", o.lastFail.Err)
		}
	}
}

func TestBasicMetrics_Snapshot(t *testing.T) {
	m := &BasicMetrics{}
	ctx := context.Background()
	sess := SessionInfo{Schema: "signup", Ref: SessionRef{SessionID: "s1"}}

	m.OnFormStart(ctx, sess)
	m.OnFormStart(ctx, sess)
	m.OnFormStart(ctx, sess)

	m.OnTurnCompleted(ctx, sess, "name", 0, OutcomeAdvanced, nil, 10*time.Millisecond)
	m.OnTurnCompleted(ctx, sess, "age", 1, OutcomeRejected, nil, time.Millisecond)
	m.OnTurnCompleted(ctx, sess, "age", 1, OutcomeSubmitted, nil, 20*time.Millisecond)
	m.OnTurnCompleted(ctx, sess, "age", 1, OutcomeIgnored, nil, time.Millisecond)

	m.OnFormCompleted(ctx, sess)
	m.OnFormFailed(ctx, sess, errors.New("boom"))

	snap := m.Snapshot()
	if snap.FormsStarted != 3 || snap.FormsCompleted != 1 || snap.FormsFailed != 1 {
		t.Fatalf("unexpected form counters: %+v", snap)
	}
	if snap.FormsInFlight != 1 {
		t.Fatalf("FormsInFlight = %d, want 1", snap.FormsInFlight)
	}
	if snap.TurnsAccepted != 2 || snap.TurnsRejected != 1 {
		t.Fatalf("unexpected turn counters: %+v", snap)
	}
	if snap.AvgTurnDuration != 15*time.Millisecond {
		t.Fatalf("AvgTurnDuration = %v, want 15ms", snap.AvgTurnDuration)
	}
}

func TestLoggingObserver_NilLoggerDefaults(t *testing.T) {
	obs := NewLoggingObserver(nil)
	lo, ok := obs.(*LoggingObserver)
	if !ok {
		t.Fatalf("expected *LoggingObserver, got %T", obs)
	}
	if lo.Logger == nil {
		t.Fatalf("nil logger should fall back to slog.Default()")
	}

	// Exercise every event with an explicit logger; none should panic.
	obs = NewLoggingObserver(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	sess := SessionInfo{Schema: "signup", Ref: SessionRef{SessionID: "s1"}}
	obs.OnFormStart(ctx, sess)
	obs.OnTurnStart(ctx, sess, "name", 0)
	obs.OnTurnCompleted(ctx, sess, "name", 0, OutcomeAdvanced, nil, time.Millisecond)
	obs.OnTurnCompleted(ctx, sess, "name", 0, OutcomeFailed, errors.New("boom"), time.Millisecond)
	obs.OnFormCompleted(ctx, sess)
	obs.OnFormFailed(ctx, sess, errors.New("boom"))
}

package api

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// TurnContext carries everything a transformer may read for one turn.
// It replaces ambient, name-matched injection with an explicit struct;
// transformers read only the fields they need.
type TurnContext struct {
	Message *Message
	Ref     SessionRef

	// Values is a copy of the values collected so far. Mutating it has no
	// effect on the session.
	Values map[string]any
}

// Transformer turns a raw inbound message into an accepted value or a
// rejection. It is a closed sum: Predicate, SyncFunc and AsyncFunc are the
// only variants, resolved once at schema registration and dispatched by a
// type switch in the engine.
type Transformer interface {
	transformer()
}

// Predicate is a pure match-and-coerce transformer. It sees only the
// message. A nil value, a false value, or an error all count as "no match":
// the turn is rejected and the error is not propagated. This makes parse
// failures (bad int, bad date) ordinary rejections rather than crashes.
type Predicate struct {
	Fn func(msg *Message) (any, error)
}

func (Predicate) transformer() {}

// SyncFunc is a user function with access to the full turn context.
// Rejection is signalled only by accepted == false; any value returned with
// accepted == true is stored, including zero values such as 0 or "". This
// keeps "no value" distinct from "valid empty value".
type SyncFunc struct {
	Fn func(turn *TurnContext) (value any, accepted bool)
}

func (SyncFunc) transformer() {}

// AsyncFunc is like SyncFunc but may perform I/O. An error is a turn
// failure, not a rejection: it propagates to the caller and the session is
// left untouched.
type AsyncFunc struct {
	Fn func(ctx context.Context, turn *TurnContext) (value any, accepted bool, err error)
}

func (AsyncFunc) transformer() {}

// Date/time layouts used by the default transformers.
const (
	DateLayout      = "02.01.2006"
	DateTimeLayout  = "02.01.2006 15:04"
	TimeOfDayLayout = "15:04"
)

// TextPredicate accepts any message that carries text.
func TextPredicate() Transformer {
	return Predicate{Fn: func(msg *Message) (any, error) {
		if msg.Text == "" {
			return nil, nil
		}
		return msg.Text, nil
	}}
}

// IntPredicate accepts text parseable as a base-10 integer.
func IntPredicate() Transformer {
	return textPredicate(func(text string) (any, error) {
		return strconv.ParseInt(text, 10, 64)
	})
}

// FloatPredicate accepts text parseable as a float.
func FloatPredicate() Transformer {
	return textPredicate(func(text string) (any, error) {
		return strconv.ParseFloat(text, 64)
	})
}

// DatePredicate accepts text in DateLayout ("24.12.2025").
func DatePredicate() Transformer {
	return textPredicate(func(text string) (any, error) {
		return time.Parse(DateLayout, text)
	})
}

// DateTimePredicate accepts text in DateTimeLayout ("24.12.2025 18:30").
func DateTimePredicate() Transformer {
	return textPredicate(func(text string) (any, error) {
		return time.Parse(DateTimeLayout, text)
	})
}

// TimeOfDayPredicate accepts text in TimeOfDayLayout ("18:30").
func TimeOfDayPredicate() Transformer {
	return textPredicate(func(text string) (any, error) {
		return time.Parse(TimeOfDayLayout, text)
	})
}

// PhotoPredicate accepts a message with a photo and yields its largest size.
func PhotoPredicate() Transformer {
	return Predicate{Fn: func(msg *Message) (any, error) {
		if len(msg.Photos) == 0 {
			return nil, nil
		}
		return msg.Photos[len(msg.Photos)-1], nil
	}}
}

// DocumentPredicate accepts a message with a document attachment.
func DocumentPredicate() Transformer {
	return Predicate{Fn: func(msg *Message) (any, error) {
		if msg.Document == nil {
			return nil, nil
		}
		return *msg.Document, nil
	}}
}

// MessagePredicate accepts every message and yields it whole.
func MessagePredicate() Transformer {
	return Predicate{Fn: func(msg *Message) (any, error) {
		return *msg, nil
	}}
}

func textPredicate(parse func(text string) (any, error)) Transformer {
	return Predicate{Fn: func(msg *Message) (any, error) {
		if msg.Text == "" {
			return nil, nil
		}
		return parse(msg.Text)
	}}
}

var defaultTransformers = map[FieldType]func() Transformer{
	TypeText:      TextPredicate,
	TypeInt:       IntPredicate,
	TypeFloat:     FloatPredicate,
	TypeDate:      DatePredicate,
	TypeDateTime:  DateTimePredicate,
	TypeTimeOfDay: TimeOfDayPredicate,
	TypePhoto:     PhotoPredicate,
	TypeDocument:  DocumentPredicate,
	TypeMessage:   MessagePredicate,
}

// DefaultTransformer resolves the transformer implied by a field type.
// Types outside the fixed table have no default; fields of such types must
// declare an explicit transformer or schema registration fails.
func DefaultTransformer(t FieldType) (Transformer, error) {
	ctor, ok := defaultTransformers[t]
	if !ok {
		return nil, fmt.Errorf("no default transformer for field type %q", t)
	}
	return ctor(), nil
}

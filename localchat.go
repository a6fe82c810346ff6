package formic

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// LocalChat bundles an in-memory Engine with a recording Outbox messenger
// to provide a simple in-process chat for development and testing.
//
// Typical usage:
//
//	chat := formic.NewLocalChat()
//	formic.New("Signup").
//	    Field("name", formic.TypeText, "What's your name?").
//	    OnSubmit(save).
//	    MustRegister(chat.Engine)
//
//	ref := chat.NewSession(1, 1)
//	_ = chat.Engine.Start(ctx, "Signup", ref)
//	res, _ := chat.Say(ctx, ref, "Alice")
type LocalChat struct {
	// Engine is the in-memory form engine used by this chat.
	Engine Engine

	// Outbox records every prompt the engine sends.
	Outbox *Outbox
}

// NewLocalChat constructs a LocalChat backed by an in-memory engine and a
// fresh Outbox.
func NewLocalChat() *LocalChat {
	outbox := NewOutbox()
	return &LocalChat{
		Engine: NewInMemoryEngine(outbox),
		Outbox: outbox,
	}
}

// NewLocalChatWithObserver is like NewLocalChat with an Observer attached.
func NewLocalChatWithObserver(obs Observer) *LocalChat {
	outbox := NewOutbox()
	return &LocalChat{
		Engine: NewInMemoryEngineWithObserver(outbox, obs),
		Outbox: outbox,
	}
}

// NewSession returns a SessionRef with a generated session id.
func (c *LocalChat) NewSession(chatID, userID int64) SessionRef {
	return SessionRef{
		SessionID: uuid.NewString(),
		ChatID:    chatID,
		UserID:    userID,
	}
}

// Say feeds a text message from the session's user into the engine.
func (c *LocalChat) Say(ctx context.Context, ref SessionRef, text string) (*TurnResult, error) {
	return c.Engine.HandleMessage(ctx, ref, &Message{
		ChatID: ref.ChatID,
		UserID: ref.UserID,
		Text:   text,
	})
}

// SendPhoto feeds a photo message into the engine. Sizes are given
// smallest first, matching transport conventions.
func (c *LocalChat) SendPhoto(ctx context.Context, ref SessionRef, sizes ...PhotoSize) (*TurnResult, error) {
	return c.Engine.HandleMessage(ctx, ref, &Message{
		ChatID: ref.ChatID,
		UserID: ref.UserID,
		Photos: sizes,
	})
}

// SendDocument feeds a document message into the engine.
func (c *LocalChat) SendDocument(ctx context.Context, ref SessionRef, doc Document) (*TurnResult, error) {
	return c.Engine.HandleMessage(ctx, ref, &Message{
		ChatID:   ref.ChatID,
		UserID:   ref.UserID,
		Document: &doc,
	})
}

// SentPrompt is one outbound message recorded by an Outbox.
type SentPrompt struct {
	ChatID int64
	Text   string
	Markup Markup
}

// Outbox is a Messenger that records every prompt instead of delivering
// it. Safe for concurrent use.
type Outbox struct {
	mu   sync.Mutex
	sent []SentPrompt
}

// NewOutbox creates an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

var _ Messenger = (*Outbox)(nil)

func (o *Outbox) SendPrompt(ctx context.Context, chatID int64, text string, markup Markup) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sent = append(o.sent, SentPrompt{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

// Sent returns a copy of everything recorded so far.
func (o *Outbox) Sent() []SentPrompt {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]SentPrompt, len(o.sent))
	copy(out, o.sent)
	return out
}

// Last returns the most recent prompt, or false if nothing was sent.
func (o *Outbox) Last() (SentPrompt, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.sent) == 0 {
		return SentPrompt{}, false
	}
	return o.sent[len(o.sent)-1], true
}

// Reset drops everything recorded so far.
func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sent = nil
}

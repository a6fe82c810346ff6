package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/petrijr/formic/pkg/api"
)

func minimalDef(name string) api.SchemaDefinition {
	return api.SchemaDefinition{
		Name: name,
		Fields: []api.FieldDefinition{
			{Name: "only", Type: api.TypeText, Prompt: "say it"},
		},
		Submit:          func(ctx context.Context, sub *api.Submission) error { return nil },
		ClearOnComplete: true,
	}
}

func TestRegistry_DuplicateSchemaName(t *testing.T) {
	r := newSchemaRegistry()

	if err := r.register(minimalDef("Signup")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	err := r.register(minimalDef("Signup"))
	if !errors.Is(err, api.ErrSchemaExists) {
		t.Fatalf("expected ErrSchemaExists, got %v", err)
	}

	// The original registration is intact.
	if _, ok := r.get("Signup"); !ok {
		t.Fatalf("original schema lost after duplicate registration")
	}
}

func TestRegistry_EmptyName(t *testing.T) {
	r := newSchemaRegistry()

	def := minimalDef("")
	if err := r.register(def); err == nil {
		t.Fatalf("expected error for empty schema name")
	}
}

func TestRegistry_NoFields(t *testing.T) {
	r := newSchemaRegistry()

	def := minimalDef("Empty")
	def.Fields = nil
	if err := r.register(def); err == nil {
		t.Fatalf("expected error for schema without fields")
	}
}

func TestRegistry_DuplicateFieldName(t *testing.T) {
	r := newSchemaRegistry()

	def := minimalDef("Dup")
	def.Fields = append(def.Fields, def.Fields[0])
	err := r.register(def)
	if err == nil || !strings.Contains(err.Error(), "duplicate field") {
		t.Fatalf("expected duplicate field error, got %v", err)
	}
}

func TestRegistry_FieldNeedsPromptOrEnter(t *testing.T) {
	r := newSchemaRegistry()

	def := minimalDef("NoPrompt")
	def.Fields[0].Prompt = ""
	def.Fields[0].Enter = nil
	err := r.register(def)
	if err == nil || !strings.Contains(err.Error(), "prompt or an entry action") {
		t.Fatalf("expected prompt/entry error, got %v", err)
	}

	// An entry action alone satisfies the requirement.
	def.Fields[0].Enter = func(ctx context.Context, enter *api.EnterContext) error { return nil }
	if err := r.register(def); err != nil {
		t.Fatalf("entry-action field rejected: %v", err)
	}
}

func TestRegistry_UnknownTypeWithoutTransformer(t *testing.T) {
	r := newSchemaRegistry()

	def := minimalDef("Odd")
	def.Fields[0].Type = api.FieldType("uuid")
	err := r.register(def)
	if err == nil || !strings.Contains(err.Error(), "no default transformer") {
		t.Fatalf("expected resolution error, got %v", err)
	}

	// An explicit transformer makes the unknown type fine.
	def.Fields[0].Transformer = api.SyncFunc{Fn: func(turn *api.TurnContext) (any, bool) {
		return turn.Message.Text, true
	}}
	if err := r.register(def); err != nil {
		t.Fatalf("explicit transformer rejected: %v", err)
	}
}

func TestRegistry_BindSubmit(t *testing.T) {
	r := newSchemaRegistry()

	def := minimalDef("Late")
	def.Submit = nil
	if err := r.register(def); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	cb := func(ctx context.Context, sub *api.Submission) error { return nil }

	if err := r.bindSubmit("Nope", cb, true); !errors.Is(err, api.ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
	if err := r.bindSubmit("Late", nil, true); err == nil {
		t.Fatalf("expected error for nil callback")
	}
	if err := r.bindSubmit("Late", cb, true); err != nil {
		t.Fatalf("bindSubmit failed: %v", err)
	}
	if err := r.bindSubmit("Late", cb, true); !errors.Is(err, api.ErrSubmitAlreadyBound) {
		t.Fatalf("expected ErrSubmitAlreadyBound, got %v", err)
	}
}

func TestRegistry_BindSubmitRejectsRebindingDefinitionCallback(t *testing.T) {
	r := newSchemaRegistry()

	if err := r.register(minimalDef("Bound")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	cb := func(ctx context.Context, sub *api.Submission) error { return nil }
	if err := r.bindSubmit("Bound", cb, true); !errors.Is(err, api.ErrSubmitAlreadyBound) {
		t.Fatalf("expected ErrSubmitAlreadyBound, got %v", err)
	}
}

func TestRegistry_ResolvesDefaultsOnce(t *testing.T) {
	r := newSchemaRegistry()

	def := api.SchemaDefinition{
		Name: "AllDefaults",
		Fields: []api.FieldDefinition{
			{Name: "a", Type: api.TypeText, Prompt: "a?"},
			{Name: "b", Type: api.TypeInt, Prompt: "b?"},
			{Name: "c", Type: api.TypeFloat, Prompt: "c?"},
			{Name: "d", Type: api.TypeDate, Prompt: "d?"},
			{Name: "e", Type: api.TypeDateTime, Prompt: "e?"},
			{Name: "f", Type: api.TypeTimeOfDay, Prompt: "f?"},
			{Name: "g", Type: api.TypePhoto, Prompt: "g?"},
			{Name: "h", Type: api.TypeDocument, Prompt: "h?"},
			{Name: "i", Type: api.TypeMessage, Prompt: "i?"},
		},
		Submit:          func(ctx context.Context, sub *api.Submission) error { return nil },
		ClearOnComplete: true,
	}
	if err := r.register(def); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	s, ok := r.get("AllDefaults")
	if !ok {
		t.Fatalf("schema not found after register")
	}
	for _, f := range s.fields {
		if f.transformer == nil {
			t.Fatalf("field %q has no resolved transformer", f.def.Name)
		}
	}
}

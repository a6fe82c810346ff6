package formic

import (
	"fmt"

	"github.com/petrijr/formic/pkg/api"
)

// SchemaBuilder provides a fluent API for defining forms:
//
//	signup := formic.New("Signup").
//	    Field("name", formic.TypeText, "What's your name?").
//	    FieldWithOptions("age", formic.TypeInt, "How old are you?", formic.FieldOptions{
//	        ErrorText: "Please send a whole number.",
//	    }).
//	    OnSubmit(saveSignup)
//
//	if err := signup.Register(engine); err != nil {
//	    log.Fatal(err)
//	}
//
//	err := formic.Start(ctx, engine, signup.Name(), ref)
type SchemaBuilder struct {
	def api.SchemaDefinition
}

// FieldOptions carries the optional parts of a field declaration.
type FieldOptions struct {
	// ErrorText is sent when the field rejects an input. Empty means the
	// user gets no reaction and stays on the field.
	ErrorText string

	// Markup is transport-specific reply markup shown with the prompt.
	Markup Markup

	// Transformer overrides the type-derived default.
	Transformer Transformer
}

// New creates a new schema builder with the given name.
// Sessions are cleared on completion unless RetainOnComplete is called.
func New(name string) *SchemaBuilder {
	return &SchemaBuilder{
		def: api.SchemaDefinition{
			Name:            name,
			Fields:          make([]api.FieldDefinition, 0),
			ClearOnComplete: true,
		},
	}
}

// Name returns the schema name.
func (b *SchemaBuilder) Name() string {
	return b.def.Name
}

// Definition returns the underlying SchemaDefinition.
// Typically used when interacting with lower-level APIs.
func (b *SchemaBuilder) Definition() SchemaDefinition {
	return b.def
}

// Field appends a field with a prompt and the type's default transformer.
func (b *SchemaBuilder) Field(name string, typ FieldType, prompt string) *SchemaBuilder {
	return b.FieldWithOptions(name, typ, prompt, FieldOptions{})
}

// FieldWithOptions appends a field with a prompt and the given options.
func (b *SchemaBuilder) FieldWithOptions(name string, typ FieldType, prompt string, opts FieldOptions) *SchemaBuilder {
	if name == "" {
		panic("formic: field name must not be empty")
	}
	if prompt == "" {
		panic(fmt.Sprintf("formic: field %q has empty prompt", name))
	}

	b.def.Fields = append(b.def.Fields, api.FieldDefinition{
		Name:        name,
		Type:        typ,
		Prompt:      prompt,
		Markup:      opts.Markup,
		ErrorText:   opts.ErrorText,
		Transformer: opts.Transformer,
	})
	return b
}

// EnterField appends a field whose entry is announced by a custom action
// instead of a prompt.
func (b *SchemaBuilder) EnterField(name string, typ FieldType, enter EnterFunc) *SchemaBuilder {
	return b.EnterFieldWithOptions(name, typ, enter, FieldOptions{})
}

// EnterFieldWithOptions appends an entry-action field with the given options.
func (b *SchemaBuilder) EnterFieldWithOptions(name string, typ FieldType, enter EnterFunc, opts FieldOptions) *SchemaBuilder {
	if name == "" {
		panic("formic: field name must not be empty")
	}
	if enter == nil {
		panic(fmt.Sprintf("formic: field %q has nil entry action", name))
	}

	b.def.Fields = append(b.def.Fields, api.FieldDefinition{
		Name:        name,
		Type:        typ,
		ErrorText:   opts.ErrorText,
		Transformer: opts.Transformer,
		Enter:       enter,
	})
	return b
}

// Transform overrides the transformer of an already-declared field. It
// panics on an unknown field name, which makes typos in YAML-loaded
// schemas fail at startup.
func (b *SchemaBuilder) Transform(fieldName string, t Transformer) *SchemaBuilder {
	if t == nil {
		panic(fmt.Sprintf("formic: field %q given nil transformer", fieldName))
	}
	for i := range b.def.Fields {
		if b.def.Fields[i].Name == fieldName {
			b.def.Fields[i].Transformer = t
			return b
		}
	}
	panic(fmt.Sprintf("formic: schema %q has no field %q", b.def.Name, fieldName))
}

// OnSubmit binds the completion callback. A schema has exactly one
// submission target; calling OnSubmit twice panics.
func (b *SchemaBuilder) OnSubmit(fn SubmitFunc) *SchemaBuilder {
	if fn == nil {
		panic(fmt.Sprintf("formic: schema %q given nil submit callback", b.def.Name))
	}
	if b.def.Submit != nil {
		panic(fmt.Sprintf("formic: schema %q already has a submit callback", b.def.Name))
	}
	b.def.Submit = fn
	return b
}

// RetainOnComplete keeps the session (with its collected values and a
// cursor past the last field) in the store after submission, instead of
// clearing it.
func (b *SchemaBuilder) RetainOnComplete() *SchemaBuilder {
	b.def.ClearOnComplete = false
	return b
}

// Register registers the built schema with the given engine.
func (b *SchemaBuilder) Register(eng Engine) error {
	return eng.RegisterSchema(b.def)
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (b *SchemaBuilder) MustRegister(eng Engine) {
	if err := b.Register(eng); err != nil {
		panic(err)
	}
}

package engine

import (
	"fmt"
	"sync"

	"github.com/petrijr/formic/pkg/api"
)

// resolvedField is a field definition bound to its concrete transformer.
// Resolution happens once, at registration; the engine references resolved
// fields and never copies or re-resolves them per session.
type resolvedField struct {
	def         api.FieldDefinition
	transformer api.Transformer
}

// resolvedSchema is the immutable, registered form of a SchemaDefinition.
type resolvedSchema struct {
	name            string
	fields          []resolvedField
	submit          api.SubmitFunc
	clearOnComplete bool
}

// schemaRegistry owns all registered schemas. It is an explicit object held
// by the engine, not package-level state, so two engines in one process
// never share or collide on schema names.
type schemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]*resolvedSchema
}

func newSchemaRegistry() *schemaRegistry {
	return &schemaRegistry{schemas: make(map[string]*resolvedSchema)}
}

// register resolves def and stores it. Every definition-time error surfaces
// here; nothing is registered on failure.
func (r *schemaRegistry) register(def api.SchemaDefinition) error {
	resolved, err := resolveSchema(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[def.Name]; exists {
		return fmt.Errorf("%w: %s", api.ErrSchemaExists, def.Name)
	}
	r.schemas[def.Name] = resolved
	return nil
}

func (r *schemaRegistry) get(name string) (*resolvedSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	return s, ok
}

// bindSubmit attaches a submit callback to an already-registered schema.
// One submission target per schema: rebinding is an error, so business
// logic cannot be silently overwritten.
func (r *schemaRegistry) bindSubmit(name string, fn api.SubmitFunc, clearOnComplete bool) error {
	if fn == nil {
		return fmt.Errorf("schema %s: submit callback must not be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schemas[name]
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrUnknownSchema, name)
	}
	if s.submit != nil {
		return fmt.Errorf("%w: %s", api.ErrSubmitAlreadyBound, name)
	}
	s.submit = fn
	s.clearOnComplete = clearOnComplete
	return nil
}

func resolveSchema(def api.SchemaDefinition) (*resolvedSchema, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("schema name is required")
	}
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("schema %s: must have at least one field", def.Name)
	}

	seen := make(map[string]struct{}, len(def.Fields))
	fields := make([]resolvedField, 0, len(def.Fields))

	for _, fd := range def.Fields {
		if fd.Name == "" {
			return nil, fmt.Errorf("schema %s: field name is required", def.Name)
		}
		if _, dup := seen[fd.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", def.Name, fd.Name)
		}
		seen[fd.Name] = struct{}{}

		if fd.Prompt == "" && fd.Enter == nil {
			return nil, fmt.Errorf("schema %s: field %q needs a prompt or an entry action", def.Name, fd.Name)
		}

		t := fd.Transformer
		if t == nil {
			var err error
			t, err = api.DefaultTransformer(fd.Type)
			if err != nil {
				return nil, fmt.Errorf("schema %s: field %q: %w", def.Name, fd.Name, err)
			}
		}
		switch t.(type) {
		case api.Predicate, api.SyncFunc, api.AsyncFunc:
		default:
			return nil, fmt.Errorf("schema %s: field %q: unrecognized transformer %T", def.Name, fd.Name, t)
		}

		fields = append(fields, resolvedField{def: fd, transformer: t})
	}

	return &resolvedSchema{
		name:            def.Name,
		fields:          fields,
		submit:          def.Submit,
		clearOnComplete: def.ClearOnComplete,
	}, nil
}

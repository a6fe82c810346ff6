package formic

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema files let the field sequence live next to configuration instead
// of code:
//
//	name: Signup
//	clear_on_complete: true
//	fields:
//	  - name: name
//	    type: text
//	    prompt: "What's your name?"
//	  - name: age
//	    type: int
//	    prompt: "How old are you?"
//	    error: "Please send a whole number."
//
// The loaded builder has no submit callback and no custom transformers;
// attach those in code via OnSubmit and Transform before registering.

type schemaFile struct {
	Name            string      `yaml:"name"`
	ClearOnComplete *bool       `yaml:"clear_on_complete"`
	Fields          []fieldFile `yaml:"fields"`
}

type fieldFile struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Prompt string `yaml:"prompt"`
	Error  string `yaml:"error"`
}

var fieldTypeNames = map[string]FieldType{
	"text":      TypeText,
	"int":       TypeInt,
	"float":     TypeFloat,
	"date":      TypeDate,
	"datetime":  TypeDateTime,
	"timeofday": TypeTimeOfDay,
	"photo":     TypePhoto,
	"document":  TypeDocument,
	"message":   TypeMessage,
}

// LoadSchema reads one YAML schema definition from r and returns it as a
// SchemaBuilder.
func LoadSchema(r io.Reader) (*SchemaBuilder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing schema file: %w", err)
	}

	if sf.Name == "" {
		return nil, fmt.Errorf("schema file: name is required")
	}
	if len(sf.Fields) == 0 {
		return nil, fmt.Errorf("schema file %s: at least one field is required", sf.Name)
	}

	b := New(sf.Name)
	if sf.ClearOnComplete != nil && !*sf.ClearOnComplete {
		b.RetainOnComplete()
	}

	for _, ff := range sf.Fields {
		if ff.Name == "" {
			return nil, fmt.Errorf("schema file %s: field name is required", sf.Name)
		}
		typ, ok := fieldTypeNames[ff.Type]
		if !ok {
			return nil, fmt.Errorf("schema file %s: field %q has unknown type %q", sf.Name, ff.Name, ff.Type)
		}
		if ff.Prompt == "" {
			return nil, fmt.Errorf("schema file %s: field %q has no prompt", sf.Name, ff.Name)
		}
		b.FieldWithOptions(ff.Name, typ, ff.Prompt, FieldOptions{ErrorText: ff.Error})
	}

	return b, nil
}

// LoadSchemaFile reads one YAML schema definition from path.
func LoadSchemaFile(path string) (*SchemaBuilder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := LoadSchema(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Package schema provides JSON schema validation for kitci configuration and
// module list files.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	schemafs "github.com/AndreyAkinshin/kitci/schema"
)

var (
	configSchema  *jsonschema.Schema
	modulesSchema *jsonschema.Schema
	compileOnce   sync.Once
	compileErr    error
)

// Violation is the most specific schema failure found in a document.
type Violation struct {
	// Location is the JSON pointer of the failing instance split into tokens.
	Location []string
	Message  string
}

func compileSchema(compiler *jsonschema.Compiler, name string) (*jsonschema.Schema, error) {
	data, err := schemafs.FS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add %s resource: %w", name, err)
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return sch, nil
}

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		configSchema, compileErr = compileSchema(compiler, "config.schema.json")
		if compileErr != nil {
			return
		}
		modulesSchema, compileErr = compileSchema(compiler, "modules.schema.json")
	})
	return compileErr
}

// ValidateConfig validates JSON data against the config schema.
func ValidateConfig(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := configSchema.Validate(v); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// CheckModules validates a decoded module list document against the modules
// schema. The document may come from YAML or JSON; it is normalized through
// encoding/json first. A nil Violation means the document is valid.
func CheckModules(doc any) (*Violation, error) {
	if err := compileSchemas(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("module list is not representable as JSON: %w", err)
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	err = modulesSchema.Validate(v)
	if err == nil {
		return nil, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}
	leaf := deepestCause(ve)
	return &Violation{
		Location: leaf.InstanceLocation,
		Message:  leaf.ErrorKind.LocalizedString(message.NewPrinter(language.English)),
	}, nil
}

// deepestCause follows the first cause chain down to a leaf error, which
// carries the most specific location and message.
func deepestCause(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

package module

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/schema"
)

// missingPropertyPattern extracts the property name from a schema
// "missing property" message.
var missingPropertyPattern = regexp.MustCompile(`missing propert(?:y|ies) '?([A-Za-z_]+)`)

// LoadList reads a YAML or JSON descriptor list, checks its raw shape against
// the module list schema and returns the validated descriptors. Relative
// module paths are kept as written.
func LoadList(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module list: %w", err)
	}
	return ParseList(data, filepath.Base(path))
}

// ParseList decodes and validates a descriptor list document. JSON is a
// subset of YAML, so a single decoder handles both.
func ParseList(data []byte, source string) ([]Descriptor, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, kerrors.Configf("%s: failed to parse module list: %v", source, err)
	}
	if raw == nil {
		return nil, nil
	}

	violation, err := schema.CheckModules(normalize(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if violation != nil {
		return nil, violationError(violation)
	}

	var descriptors []Descriptor
	if err := yaml.Unmarshal(data, &descriptors); err != nil {
		return nil, kerrors.Configf("%s: failed to decode module list: %v", source, err)
	}
	if err := Validate(descriptors); err != nil {
		return nil, err
	}
	return descriptors, nil
}

// violationError maps a schema violation to an InvalidDescriptorError. A
// violation on the list itself is reported at index 0.
func violationError(v *schema.Violation) error {
	idErr := &kerrors.InvalidDescriptorError{Reason: v.Message}
	if len(v.Location) > 0 {
		if idx, err := strconv.Atoi(v.Location[0]); err == nil {
			idErr.Index = idx
		}
	}
	if len(v.Location) > 1 {
		idErr.Field = v.Location[1]
	} else if m := missingPropertyPattern.FindStringSubmatch(v.Message); m != nil {
		idErr.Field = m[1]
		idErr.Reason = "is required"
	}
	return idErr
}

// normalize converts yaml.v3 map[string]interface{} trees into values that
// encoding/json can marshal. yaml.v3 already decodes mappings with string
// keys; non-string keys are stringified.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

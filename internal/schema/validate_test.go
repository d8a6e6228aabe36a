package schema

import (
	"strings"
	"testing"
)

func TestSchemaValidConfig(t *testing.T) {
	data := []byte(`{
		"$schema": "https://kitci.dev/schema/config.schema.json",
		"project": {"name": "xnetworking"},
		"engine": {"command": "pwsh -Command Invoke-Pester", "format": "nunit"},
		"tests": {"results_file": "TestsResults.xml", "output_dir": "out"},
		"discovery": {"manifest_pattern": "*.psd1", "exclude": ["Tests"]},
		"version": {"files": [{"path": "README.md", "pattern": "v[0-9.]+", "replace": "v{version}"}]},
		"package": {"tags": ["DSC"]},
		"ci": {"provider": "appveyor"}
	}`)

	if err := ValidateConfig(data); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestSchemaEmptyConfigIsValid(t *testing.T) {
	if err := ValidateConfig([]byte("{}")); err != nil {
		t.Errorf("expected empty object to be valid, got %v", err)
	}
}

func TestSchemaInvalidConfigMalformedJSON(t *testing.T) {
	if err := ValidateConfig([]byte(`{"engine": `)); err == nil {
		t.Error("expected validation error for malformed JSON, got nil")
	}
}

func TestSchemaInvalidConfigNotObject(t *testing.T) {
	if err := ValidateConfig([]byte(`"string"`)); err == nil {
		t.Error("expected validation error for non-object, got nil")
	}
}

func TestSchemaInvalidConfigUnknownFormat(t *testing.T) {
	if err := ValidateConfig([]byte(`{"engine": {"format": "trx"}}`)); err == nil {
		t.Error("expected validation error for unknown result format, got nil")
	}
}

func TestCheckModules(t *testing.T) {
	tests := []struct {
		name        string
		doc         any
		wantValid   bool
		wantIndex   string
		wantMessage string
	}{
		{
			name:      "empty list",
			doc:       []any{},
			wantValid: true,
		},
		{
			name: "well formed",
			doc: []any{
				map[string]any{"name": "A", "path": "/exists", "tests": []any{"t1.test"}},
				map[string]any{"name": "B", "path": "b", "code_coverage": []any{"b.psm1"}},
			},
			wantValid: true,
		},
		{
			name: "missing path",
			doc: []any{
				map[string]any{"name": "A", "path": "a"},
				map[string]any{"name": "B"},
			},
			wantIndex:   "1",
			wantMessage: "path",
		},
		{
			name:        "element not an object",
			doc:         []any{"just-a-string"},
			wantIndex:   "0",
			wantMessage: "object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := CheckModules(tt.doc)
			if err != nil {
				t.Fatalf("CheckModules() error = %v", err)
			}
			if tt.wantValid {
				if v != nil {
					t.Errorf("CheckModules() = %+v, want nil", v)
				}
				return
			}
			if v == nil {
				t.Fatal("CheckModules() = nil, want violation")
			}
			if len(v.Location) == 0 || v.Location[0] != tt.wantIndex {
				t.Errorf("Location = %v, want first token %q", v.Location, tt.wantIndex)
			}
			if !strings.Contains(v.Message, tt.wantMessage) {
				t.Errorf("Message = %q, want it to mention %q", v.Message, tt.wantMessage)
			}
		})
	}
}

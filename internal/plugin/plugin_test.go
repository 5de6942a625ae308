package plugin

import (
	"context"
	"testing"

	"git.home.luguber.info/inful/distbuilder/internal/files"
)

// mockHook is a build hook for registry and context tests.
type mockHook struct {
	BasePlugin
	name string
	runs int
}

func (m *mockHook) Metadata() PluginMetadata {
	return PluginMetadata{Name: m.name, Version: "v1.0.0", Type: PluginTypeBuildHook}
}

func (m *mockHook) Run(ctx context.Context, bc *BuildContext, cfg map[string]any) error {
	m.runs++
	return nil
}

// mockTarget is a packaging target declaring a fixed version list.
type mockTarget struct {
	BasePlugin
	name     string
	versions []string
}

func (m *mockTarget) Metadata() PluginMetadata {
	return PluginMetadata{Name: m.name, Version: "v1.0.0", Type: PluginTypeTarget}
}

func (m *mockTarget) Versions() []string { return m.versions }

func (m *mockTarget) Pack(ctx context.Context, records []files.FileRecord, bc *BuildContext) (string, error) {
	return "", nil
}

// mislabeled claims to be a target without implementing Target.
type mislabeled struct {
	BasePlugin
}

func (m *mislabeled) Metadata() PluginMetadata {
	return PluginMetadata{Name: "fake", Version: "v1.0.0", Type: PluginTypeTarget}
}

// TestPluginMetadataValidation tests plugin metadata validation.
func TestPluginMetadataValidation(t *testing.T) {
	tests := []struct {
		name      string
		metadata  PluginMetadata
		expectErr bool
	}{
		{
			name: "valid metadata",
			metadata: PluginMetadata{
				Name:        "zip",
				Version:     "v1.0.0",
				Type:        PluginTypeTarget,
				Description: "Test plugin",
			},
			expectErr: false,
		},
		{
			name: "missing name",
			metadata: PluginMetadata{
				Version: "v1.0.0",
				Type:    PluginTypeBuildHook,
			},
			expectErr: true,
		},
		{
			name: "missing version",
			metadata: PluginMetadata{
				Name: "zip",
				Type: PluginTypeTarget,
			},
			expectErr: true,
		},
		{
			name: "invalid type",
			metadata: PluginMetadata{
				Name:    "zip",
				Version: "v1.0.0",
				Type:    PluginType("theme"),
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.metadata.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestPluginTypeValidation tests plugin type validation.
func TestPluginTypeValidation(t *testing.T) {
	tests := []struct {
		name       string
		pluginType PluginType
		expected   bool
	}{
		{"version source is valid", PluginTypeVersionSource, true},
		{"build hook is valid", PluginTypeBuildHook, true},
		{"target is valid", PluginTypeTarget, true},
		{"invalid type", PluginType("invalid"), false},
		{"empty type", PluginType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pluginType.IsValid(); got != tt.expected {
				t.Errorf("IsValid() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestPluginMetadataString(t *testing.T) {
	m := PluginMetadata{Name: "zip", Version: "v1.0.0", Type: PluginTypeTarget}
	if got := m.String(); got != "zip@v1.0.0 (target)" {
		t.Errorf("String() = %q", got)
	}
}

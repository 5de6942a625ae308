// Package metadata provides the project metadata view used by the builder:
// the project identity used to name artifacts and the static/dynamic field
// consistency check that runs before every build.
package metadata

import (
	"slices"

	"git.home.luguber.info/inful/distbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

// dynamicCheckedFields are the fields whose static/dynamic overlap is
// rejected here. Other dynamic fields are resolved by metadata hooks.
var dynamicCheckedFields = []string{"version"}

// ProjectMetadata is a read-only view over the `project` table.
type ProjectMetadata struct {
	table   map[string]any
	name    string
	version string
	dynamic []string
}

// FromConfig builds the metadata view from the accessor's `project` table.
func FromConfig(a *config.Accessor) (*ProjectMetadata, error) {
	project, err := a.Project()
	if err != nil {
		return nil, err
	}

	m := &ProjectMetadata{table: project}
	if m.name, _, err = config.String(project, "name", "project.name"); err != nil {
		return nil, err
	}
	if m.version, _, err = config.String(project, "version", "project.version"); err != nil {
		return nil, err
	}
	if m.dynamic, _, err = config.StringArray(project, "dynamic", "project.dynamic", "Field"); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the declared project name, possibly empty.
func (m *ProjectMetadata) Name() string { return m.name }

// Version returns the static version, empty if none is declared.
func (m *ProjectMetadata) Version() string { return m.version }

// Dynamic returns the fields declared as computed at build time.
func (m *ProjectMetadata) Dynamic() []string { return slices.Clone(m.dynamic) }

// IsDynamic reports whether field is listed in `project.dynamic`.
func (m *ProjectMetadata) IsDynamic(field string) bool {
	return slices.Contains(m.dynamic, field)
}

// Field returns an arbitrary declared field.
func (m *ProjectMetadata) Field(name string) (any, bool) {
	v, ok := m.table[name]
	return v, ok
}

// Check fails when a field is both statically defined and listed in
// `project.dynamic`.
func (m *ProjectMetadata) Check() error {
	for _, field := range dynamicCheckedFields {
		if _, static := m.table[field]; static && m.IsDynamic(field) {
			return dberrors.StaticAndDynamic(field)
		}
	}
	return nil
}

// ProjectID returns the normalized `<name>-<version>` identifier.
func (m *ProjectMetadata) ProjectID() (string, error) {
	if m.name == "" {
		return "", dberrors.MissingField("project.name")
	}
	return ProjectID(m.name, m.version), nil
}

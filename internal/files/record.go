package files

// Origin records why a file was selected.
type Origin string

const (
	// OriginProject files were selected by the project walk (include and
	// package rules, subject to exclusion).
	OriginProject Origin = "project"
	// OriginArtifact files matched an `artifacts` pattern.
	OriginArtifact Origin = "artifact"
	// OriginForceInclude files come from a `force-include` mapping.
	OriginForceInclude Origin = "force-include"
)

// FileRecord is one resolved inclusion. Records are identified by
// DistributionPath; a resolution never yields two records with the same one.
type FileRecord struct {
	// Path is the absolute source path.
	Path string `json:"path" yaml:"path"`
	// DistributionPath is the destination inside the artifact, using the OS
	// path separator.
	DistributionPath string `json:"distribution_path" yaml:"distribution_path"`
	Origin           Origin `json:"origin" yaml:"origin"`
}

// BypassesExclude reports whether exclude patterns were ignored for the record.
func (r FileRecord) BypassesExclude() bool {
	return r.Origin != OriginProject
}

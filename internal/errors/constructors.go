package errors

import (
	"fmt"
	"strings"
)

// Convenience functions for the error messages downstream tooling matches on.
// The message text of each constructor is part of the public contract.

// Config errors

func NotTable(field string) *BuildError {
	return Newf(CategoryConfig, "Field `%s` must be a table", field).
		WithContext("field", field)
}

func NotArray(field string) *BuildError {
	return Newf(CategoryConfig, "Field `%s` must be an array", field).
		WithContext("field", field)
}

func NotString(field string) *BuildError {
	return Newf(CategoryConfig, "Field `%s` must be a string", field).
		WithContext("field", field)
}

func NotBoolean(field string) *BuildError {
	return Newf(CategoryConfig, "Field `%s` must be a boolean", field).
		WithContext("field", field)
}

// ItemNotString reports a non-string array element; kind is e.g. "Pattern" or "Package",
// index is 1-based.
func ItemNotString(kind string, index int, field string) *BuildError {
	return Newf(CategoryConfig, "%s #%d in field `%s` must be a string", kind, index, field).
		WithContext("field", field)
}

// MappingValueNotString reports a non-string value in a string mapping.
func MappingValueNotString(key, field string) *BuildError {
	return Newf(CategoryConfig, "Path for source `%s` in field `%s` must be a string", key, field).
		WithContext("field", field)
}

// Metadata errors

func MissingField(field string) *BuildError {
	return Newf(CategoryMetadata, "Missing required field `%s`", field).
		WithContext("field", field)
}

func StaticAndDynamic(field string) *BuildError {
	return Newf(CategoryMetadata,
		"Metadata field `%s` cannot be both statically defined and listed in field `project.dynamic`", field).
		WithContext("field", field)
}

// Validation errors

func UnknownVersions(target string, versions []string) *BuildError {
	return Newf(CategoryValidation, "Unknown versions for target `%s`: %s", target, strings.Join(versions, ", ")).
		WithContext("target", target)
}

func UnknownBuildHook(name string) *BuildError {
	return Newf(CategoryValidation, "Unknown build hook: %s", name).
		WithContext("hook", name)
}

func UnknownTarget(name string) *BuildError {
	return Newf(CategoryValidation, "Unknown build target: %s", name).
		WithContext("target", name)
}

func UnknownVersionSource(name string) *BuildError {
	return Newf(CategoryValidation, "Unknown version source: %s", name).
		WithContext("version_source", name)
}

// Pattern errors

func InvalidPattern(field, pattern string) *BuildError {
	return Newf(CategoryConfig, "Invalid pattern `%s` in field `%s`", pattern, field).
		WithContext("field", field)
}

// Plugin / build errors

func PluginFailed(plugin, operation string, cause error) *BuildError {
	return Wrap(cause, CategoryPlugin, SeverityFatal, fmt.Sprintf("plugin %s failed during %s", plugin, operation)).
		WithContext("plugin", plugin)
}

func FileSystemError(operation string, cause error) *BuildError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, operation).
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

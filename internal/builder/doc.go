// Package builder orchestrates a distribution build for one target.
//
// A Builder owns the project root and its raw configuration and exposes the
// validated views derived from them: the project metadata and identifier, the
// build and target tables, the resolved file records. Build runs the
// validate, resolve-versions and per-version stages and streams the artifact
// paths the target produces.
//
// Builders memoize what they read and are not safe for concurrent use. Run
// independent builds on independent Builders.
package builder

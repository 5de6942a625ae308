// Package workspace manages the output directory of a build.
//
// Targets never write an artifact in place: they write into a staging file
// next to the final path and publish it with a rename once the artifact is
// complete, so an interrupted or failed build leaves no partial artifact
// under the final name.
package workspace

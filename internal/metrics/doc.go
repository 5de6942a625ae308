// Package metrics provides build metrics for the builder.
//
// The builder records through the Recorder interface. NoopRecorder is the
// default, so callers that do not care about metrics need no nil checks;
// PrometheusRecorder forwards to client_golang collectors registered on a
// caller-supplied registry.
//
//	reg := prom.NewRegistry()
//	b := builder.New(root, builder.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The CLI either logs the gathered families when it exits (LogGathered) or,
// for the long-running watch command, serves them over HTTP (HTTPHandler).
package metrics

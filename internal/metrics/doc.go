// Package metrics provides observability hooks for docsite task runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks at call sites:
//
//	seq := tasks.NewSequencer(reg).WithRecorder(metrics.NoopRecorder{})
//
// When serve.metrics is enabled the CLI swaps in a PrometheusRecorder bound
// to a private registry and mounts HTTPHandler at /metrics on the preview
// server.
package metrics

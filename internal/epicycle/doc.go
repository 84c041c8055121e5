// Package epicycle defines the shared domain types for sketch replay.
//
// A user sketch is a [Stroke] of timed [Point]s. An external service
// decomposes it into a [VectorSet] of [FrequencyVector]s; summing those
// rotating vectors end to end traces the sketch again:
//
//   - [Point], [Stroke]: captured input, seconds since stroke start
//   - [FrequencyVector]: one rotating term (frequency index n, complex amplitude)
//   - [VectorSet]: the full set, rendered in ascending |n| order
//   - [Drawing]: a submitted stroke and, once computed, its vectors
//   - [DrawVectors]: wire decoder accepting both response shapes
//
// # Errors
//
// Failures are classified by the sentinel errors in errors.go and are
// matched with errors.Is.
package epicycle

// Package services defines shared utilities consumed by the pipeline steps and
// the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, step names, and the file currently
//     being processed for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is.
//   - The Executor abstraction that makes cwebp and git invocations testable.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error wording, observability) stays uniform across the pipeline.
package services

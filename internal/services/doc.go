// Package services defines shared utilities consumed by the batch loops and
// the external collaborators they drive.
//
// Key responsibilities:
//   - Context helpers that stamp work item keys, step names, channels and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, and Classify, which
//     turns a failure into the response a batch loop takes (retry, soft
//     stop, skip the item, close the upload gate, halt the channel).
//
// Collaborators should wrap every failure with one of these markers so the
// orchestrators can isolate it without inspecting provider-specific errors.
package services

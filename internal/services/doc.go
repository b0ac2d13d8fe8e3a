// Package services defines shared utilities consumed by the reconciliation
// engine and the remote store integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, destination variants, and row
//     indexes for logging.
//   - Structured error markers plus the Wrap helper so the CMS client can tag
//     failures (timeout, authorization, communication) and the retry executor
//     can classify them without inspecting transport details.
//
// Use these helpers when wiring new remote calls so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services

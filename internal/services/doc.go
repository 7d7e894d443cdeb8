// Package services defines shared utilities consumed by the render session
// orchestrator and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, transports, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (fatal vs retryable) uniform across tool clients.
//
// Use these helpers when wiring a new tool client so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services

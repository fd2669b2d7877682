// Package ingestion provides pipeline orchestration for processing voice memos.
//
// The Pipeline type drives each memo through its stages in order:
//   - Transcribing the recording and storing the encrypted transcription
//   - Extracting metadata, optionally anonymizing it, and storing it encrypted
//   - Summarizing the transcription and storing the summary
//
// Distinct memos are processed concurrently on a worker pool. Calls to AI
// collaborators are retried with exponential backoff; storage failures are
// reported as-is. When a checkpoint repository is configured, completed
// stages are recorded per memo and skipped on the next run.
package ingestion

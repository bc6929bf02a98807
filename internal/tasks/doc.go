// Package tasks runs long batch operations against the backend with real-time progress reporting.
//
// # Bulk Upload
//
// [Engine.BulkUpload] uploads many files through a worker pool:
//   - A dispatcher paces jobs with a [rate.Limiter] (default 2 per second)
//   - Workers (default 3, at most 8) upload each file once
//   - When a project is named, each uploaded file is attached to it
//
// A failed file is recorded in the result and never retried. The run fails as a whole only when the context
// is cancelled or the manifest cannot be written.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on a caller-supplied channel. Sends use select with default so a
// slow or absent reader never stalls the pool.
package tasks

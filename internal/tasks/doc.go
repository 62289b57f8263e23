// Package tasks runs long report jobs over the progress store with non-blocking progress reporting.
//
// # Bulk Export
//
// [ReportExporter.BulkExport] writes one report file per user through a small worker pool:
//
//  1. A producer walks the user list, optionally rate limited, and queues jobs
//  2. Workers build each user's rows from the [ReportSource] and render them with the formatter package
//  3. Results are collected into a [BulkExportResult] and summarized in export_manifest.json
//
// One user's failure never aborts the others; it is recorded in the manifest.
//
// # Progress Reporting
//
// Updates are [ProgressUpdate] values sent with select/default, so a slow or absent reader never stalls
// the export. Pass a nil channel to disable them.
package tasks

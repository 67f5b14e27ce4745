// Package tasks runs the long catalog operations behind the CLI exports with real-time progress reporting.
//
// # Core Operations
//
// [Engine] implements two operations:
//
//  1. [Engine.LoadPages] : Accumulate several pages of the now-playing feed
//     - Mounts the feed (genre table and page 1)
//     - Loads following pages until the requested count or the last page
//     - Stops at the first failed fetch; the feed's message is returned
//
//  2. [Engine.ExportMarkdown] : Write a listing as a Markdown directory
//     - Downloads poster images with a bounded worker pool
//     - Links downloaded posters locally and the rest remotely
//     - Writes a JSON manifest summarizing the export
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks

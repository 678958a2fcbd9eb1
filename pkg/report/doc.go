// Package report exports monitoring reports as JSON documents.
//
// A report has the layout
//
//	{
//	  "timestamp": "...",
//	  "analytics": { ... },
//	  "rawMetrics": { "api": [...], "database": [...], "performance": [...] }
//	}
//
// where each raw array holds at most the newest 1000 entries. Export writes
// the same document to every configured Sink: FileSink for a local
// directory, S3Sink for a bucket. Write failures are returned to the caller.
package report

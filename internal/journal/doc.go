// Package journal records what the batch loops did to each work item in an
// SQLite database under the state directory.
//
// The filesystem stays the record of truth for stage, date and title; the
// journal is an append-only event log for operators. It answers "when was
// this item rendered", "which uploads happened today" and "why was this
// channel skipped" without scraping log files.
//
// Writers retry briefly on SQLITE_BUSY so the CLI and the daemon can share
// the database.
package journal

// Package database provides SQLite-based run history for autodork.
//
// The HistoryDB stores:
//   - One row per run with its aggregate counts and summary
//   - One row per dispatched dork with its outcome and result file
//
// SQLite is used through modernc.org/sqlite, which is CGO-free, so the
// history is a single file under the XDG data directory.
package database

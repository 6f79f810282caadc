// Package database provides SQLite-based storage for the crawl history.
//
// Every finished crawl can be saved as a row holding its summary counts and
// the full report as JSON, so earlier runs of the same site can be listed
// and re-rendered later.
//
// The database is a single file (sitecrawl.db) in the XDG data directory,
// opened through the CGO-free modernc.org/sqlite driver in WAL mode.
package database

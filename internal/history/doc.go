// Package history keeps a SQLite ledger of pipeline runs and the images each
// run converted.
//
// The database lives in the state directory next to the run lock. The
// pipeline writes through the Recorder interface so history can be switched
// off without touching the run logic; `pixship history` reads it back.
package history

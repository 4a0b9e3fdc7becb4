// Package notifications delivers run events to ntfy.
//
// The ntfy topic comes from config.toml; with no topic configured the
// package returns a no-op service so callers never need to check. Messages
// cover run completion, publish warnings, and a manual test ping.
package notifications

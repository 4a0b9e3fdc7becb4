// Package main hosts the pixship CLI entrypoint and command graph.
//
// `pixship run` performs one upload: convert new images, archive the
// originals, prepend URLs to the link logs and publish through git. The
// remaining commands inspect the setup (check), the ledger (history) and the
// configuration (config), or ping ntfy (test-notify).
//
// The exit status is non-zero only when a run cannot start: invalid
// configuration, a held run lock, or a failed required preflight check.
// Per-image failures and publish warnings are reported in the run summary.
package main

// Package pipeline runs one pixship upload end to end.
//
// A Runner discovers raw images, converts each one to WebP, archives the
// original under a dated directory, prepends the public URLs to the live and
// test link logs, and finally publishes the repository through git. In
// forced_with_signal mode a successful force-push is followed by a workflow
// dispatch request.
//
// Files are handled strictly one at a time. A file that fails to convert or
// archive is left in the input directory and does not stop the run. Publish
// problems are downgraded to warnings and reflected in the run Outcome; only
// setup errors such as an unreadable input tree are returned as errors.
//
// Every collaborator is injected through Dependencies so tests can drive the
// whole run with fakes.
package pipeline

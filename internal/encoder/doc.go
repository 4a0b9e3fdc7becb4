// Package encoder wraps the cwebp command-line encoder.
//
// A Client converts one raw image per call: it measures the source, runs
// cwebp with the configured quality, effort and width bound, and measures
// the produced file. The process runner is injectable so tests never need a
// real cwebp on PATH.
package encoder

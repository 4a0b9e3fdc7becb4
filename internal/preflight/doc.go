// Package preflight checks that a run can start: the encoder and git are
// installed, the working directories are usable, and the dispatch credential
// is present when the publish mode needs it.
//
// `pixship run` refuses to start when a required check fails. A missing git
// checkout is optional: conversion still runs and publishing reports the
// failure. `pixship check` prints every result, including the optional ones.
package preflight

// Package config loads, normalizes, and validates pixship configuration data.
//
// It supplies repository defaults, resolves every working directory relative
// to the site repository (expanding tilde shortcuts along the way), reads TOML
// files, and honours environment fallbacks such as PIXSHIP_DISPATCH_TOKEN and
// GITHUB_TOKEN. The Config type centralizes every knob the pipeline and CLI
// need so a run can be wired from one explicit value instead of globals.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical publish modes, and clear validation errors.
package config

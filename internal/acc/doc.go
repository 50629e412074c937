// Package acc maps the charging daemon's text formats onto typed models.
//
// ParseConfig reads config.txt, ParseTelemetry reads the `acc -i` status dump,
// and the *Command builders produce the exact invocation strings the daemon
// expects for every settable field group. Nothing in this package executes
// commands or touches the filesystem.
package acc

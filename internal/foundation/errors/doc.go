// Package errors classifies accctl failures.
//
// Core packages report failures as ClassifiedErrors built with the fluent
// ErrorBuilder. The category decides the CLI exit code and the HTTP status;
// context carries the details a caller needs, such as the failing acc command
// and its exit code:
//
//	return errors.CommandError("acc -s temp 400-450_90", 1).
//		WithContext("group", "temp").
//		Build()
package errors

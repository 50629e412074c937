// Package accd talks to the charging daemon through an executor.Executor.
//
// Reads go through the config file or a status command and are parsed with
// package acc; writes are one acc invocation per field group, and report the
// executor's success flag.
package accd

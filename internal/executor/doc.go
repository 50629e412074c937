// Package executor runs privileged command lines against the device shell.
//
// Every interaction with the charging daemon and the job runner goes through
// an Executor. Implementations block until the command completes or the
// context is canceled; Async wraps any Executor for dispatch-and-forget use.
package executor

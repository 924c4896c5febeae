// Package errors defines error types for commando.
//
// This package provides structured error types for the failure scenarios of
// spawning and driving a subprocess and of reading and merging JSON files.
// All error types support error unwrapping and can be checked using
// errors.Is, errors.As, and errors.AsType.
package errors

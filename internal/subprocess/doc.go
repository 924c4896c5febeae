// Package subprocess spawns and supervises the driven child process.
//
// A Process owns the child and its three standard streams. Output is
// delivered to handlers chunk by chunk, exactly as the operating system
// returns it from each read, so chunks do not necessarily align with lines.
// Writes to stdin are queued and performed by a dedicated goroutine, and
// Write never blocks.
package subprocess

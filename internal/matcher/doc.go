// Package matcher implements the ordered pattern/response table that drives
// an interactive subprocess.
//
// A Set holds matchers in registration order. Each output chunk is scanned
// against an immutable snapshot of the set; the first matcher whose pattern
// matches fires, and one-shot matchers are removed from the next state once
// the scan has finished. At most one matcher fires per chunk.
package matcher

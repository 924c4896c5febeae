package matcher

import (
	"regexp"
	"slices"
	"sync"

	"github.com/wagiedev/commando/internal/errors"
)

// Responder produces the text to write to the subprocess for a matching chunk.
// An empty string writes nothing.
type Responder func(msg string) string

// Matcher is a registered pattern and its responder. Matchers are never
// mutated after registration.
type Matcher struct {
	Pattern   *regexp.Regexp
	Respond   Responder
	MatchMany bool

	// Terminal marks a matcher that ends the session after firing.
	// Its response is never written.
	Terminal bool
}

// Result describes what a chunk triggered.
type Result struct {
	// Matcher is the matcher that fired, or nil when nothing matched.
	Matcher *Matcher

	// Response is the text to write to stdin. Always empty for terminal matchers.
	Response string

	// Terminate is true when the fired matcher ends the session.
	Terminate bool
}

// Matched reports whether any matcher fired.
func (r Result) Matched() bool {
	return r.Matcher != nil
}

// Set is an ordered, concurrency-safe sequence of matchers.
type Set struct {
	mu       sync.Mutex
	matchers []*Matcher
}

// NewSet creates an empty matcher set.
func NewSet() *Set {
	return &Set{}
}

// Add appends m to the end of the set.
func (s *Set) Add(m *Matcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy-on-write keeps previously taken snapshots intact.
	next := make([]*Matcher, 0, len(s.matchers)+1)
	next = append(next, s.matchers...)
	s.matchers = append(next, m)
}

// Len returns the number of registered matchers.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.matchers)
}

// Snapshot returns the current matchers in registration order.
// The returned slice must not be modified.
func (s *Set) Snapshot() []*Matcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.matchers
}

// remove drops m from the set by identity.
func (s *Set) remove(m *Matcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.Index(s.matchers, m)
	if idx < 0 {
		return
	}

	next := make([]*Matcher, 0, len(s.matchers)-1)
	next = append(next, s.matchers[:idx]...)
	s.matchers = append(next, s.matchers[idx+1:]...)
}

// Dispatch evaluates chunk against a snapshot of the set.
//
// The first matching matcher's responder is called with chunk. A responder
// panic is recovered and returned as a *errors.ResponderPanicError; in that
// case nothing is written and the matcher stays registered.
func (s *Set) Dispatch(chunk string) (res Result, err error) {
	snapshot := s.Snapshot()

	for _, m := range snapshot {
		if !m.Pattern.MatchString(chunk) {
			continue
		}

		response, err := call(m, chunk)
		if err != nil {
			return Result{Matcher: m}, err
		}

		res = Result{Matcher: m, Terminate: m.Terminal}
		if !m.Terminal {
			res.Response = response
		}

		break
	}

	if res.Matcher != nil && !res.Matcher.MatchMany {
		s.remove(res.Matcher)
	}

	return res, nil
}

func call(m *Matcher, chunk string) (response string, err error) {
	if m.Respond == nil {
		return "", nil
	}

	defer func() {
		if v := recover(); v != nil {
			err = &errors.ResponderPanicError{
				Pattern: m.Pattern.String(),
				Chunk:   chunk,
				Value:   v,
			}
		}
	}()

	return m.Respond(chunk), nil
}

package matcher

import (
	stderrors "errors"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wagiedev/commando/internal/errors"
)

func reply(text string) Responder {
	return func(string) string { return text }
}

// counting returns a responder that records every chunk it is called with.
func counting(calls *[]string, text string) Responder {
	return func(msg string) string {
		*calls = append(*calls, msg)

		return text
	}
}

// TestDispatch_FirstMatchWins tests that only the first matching matcher fires.
func TestDispatch_FirstMatchWins(t *testing.T) {
	var first, second []string

	set := NewSet()
	set.Add(&Matcher{Pattern: regexp.MustCompile(`name`), Respond: counting(&first, "alice\n")})
	set.Add(&Matcher{Pattern: regexp.MustCompile(`name\?`), Respond: counting(&second, "bob\n")})

	res, err := set.Dispatch("What is your name?")

	require.NoError(t, err)
	require.True(t, res.Matched())
	require.Equal(t, "alice\n", res.Response)
	require.Equal(t, []string{"What is your name?"}, first)
	require.Empty(t, second)
}

// TestDispatch_NoMatch tests that an unmatched chunk has no effect.
func TestDispatch_NoMatch(t *testing.T) {
	var calls []string

	set := NewSet()
	set.Add(&Matcher{Pattern: regexp.MustCompile(`prompt`), Respond: counting(&calls, "x")})

	res, err := set.Dispatch("unrelated output")

	require.NoError(t, err)
	require.False(t, res.Matched())
	require.Empty(t, res.Response)
	require.Empty(t, calls)
	require.Equal(t, 1, set.Len())
}

// TestDispatch_OneShotRemoved tests that a matcher without MatchMany fires at most once.
func TestDispatch_OneShotRemoved(t *testing.T) {
	var calls []string

	set := NewSet()
	set.Add(&Matcher{Pattern: regexp.MustCompile(`ok`), Respond: counting(&calls, "")})

	for range 3 {
		_, err := set.Dispatch("ok")
		require.NoError(t, err)
	}

	require.Len(t, calls, 1)
	require.Equal(t, 0, set.Len())
}

// TestDispatch_MatchManyPersists tests that a MatchMany matcher fires on every matching chunk.
func TestDispatch_MatchManyPersists(t *testing.T) {
	var calls []string

	set := NewSet()
	set.Add(&Matcher{Pattern: regexp.MustCompile(`continue\?`), Respond: counting(&calls, "y\n"), MatchMany: true})

	for range 3 {
		res, err := set.Dispatch("continue?")
		require.NoError(t, err)
		require.Equal(t, "y\n", res.Response)
	}

	require.Len(t, calls, 3)
	require.Equal(t, 1, set.Len())
}

// TestDispatch_RemovalExposesNextMatcher tests that once a one-shot matcher is
// gone, later matchers for the same pattern get their turn.
func TestDispatch_RemovalExposesNextMatcher(t *testing.T) {
	set := NewSet()
	set.Add(&Matcher{Pattern: regexp.MustCompile(`\?`), Respond: reply("first\n")})
	set.Add(&Matcher{Pattern: regexp.MustCompile(`\?`), Respond: reply("second\n")})

	res, err := set.Dispatch("q1?")
	require.NoError(t, err)
	require.Equal(t, "first\n", res.Response)

	res, err = set.Dispatch("q2?")
	require.NoError(t, err)
	require.Equal(t, "second\n", res.Response)

	res, err = set.Dispatch("q3?")
	require.NoError(t, err)
	require.False(t, res.Matched())
}

// TestDispatch_Terminal tests that terminal matchers never produce a response.
func TestDispatch_Terminal(t *testing.T) {
	var calls []string

	set := NewSet()
	set.Add(&Matcher{Pattern: regexp.MustCompile(`prompt`), Respond: counting(&calls, "yes\n"), Terminal: true})

	res, err := set.Dispatch("prompt>")

	require.NoError(t, err)
	require.True(t, res.Terminate)
	require.Empty(t, res.Response)
	require.Equal(t, []string{"prompt>"}, calls)
}

// TestDispatch_NilResponder tests that matchers without a responder still fire.
func TestDispatch_NilResponder(t *testing.T) {
	set := NewSet()
	set.Add(&Matcher{Pattern: regexp.MustCompile(`done`), Terminal: true})

	res, err := set.Dispatch("done")

	require.NoError(t, err)
	require.True(t, res.Matched())
	require.True(t, res.Terminate)
}

// TestDispatch_ResponderPanic tests that a panicking responder is reported and
// leaves the matcher registered.
func TestDispatch_ResponderPanic(t *testing.T) {
	root := stderrors.New("boom")

	set := NewSet()
	set.Add(&Matcher{
		Pattern: regexp.MustCompile(`crash`),
		Respond: func(string) string { panic(root) },
	})

	res, err := set.Dispatch("crash now")

	require.Error(t, err)
	require.ErrorIs(t, err, root)

	panicErr, ok := stderrors.AsType[*errors.ResponderPanicError](err)
	require.True(t, ok)
	require.Equal(t, "crash", panicErr.Pattern)
	require.Equal(t, "crash now", panicErr.Chunk)
	require.Empty(t, res.Response)
	require.Equal(t, 1, set.Len())
}

// TestDispatch_AddDuringResponder tests that registering from inside a
// responder neither affects the current scan nor is lost by the removal.
func TestDispatch_AddDuringResponder(t *testing.T) {
	set := NewSet()

	var late []string

	set.Add(&Matcher{
		Pattern: regexp.MustCompile(`step`),
		Respond: func(string) string {
			set.Add(&Matcher{Pattern: regexp.MustCompile(`step`), Respond: counting(&late, "")})

			return "next\n"
		},
	})

	res, err := set.Dispatch("step 1")
	require.NoError(t, err)
	require.Equal(t, "next\n", res.Response)
	require.Empty(t, late)
	require.Equal(t, 1, set.Len())

	_, err = set.Dispatch("step 2")
	require.NoError(t, err)
	require.Equal(t, []string{"step 2"}, late)
}

// TestSnapshot_Stable tests that earlier snapshots are unaffected by later changes.
func TestSnapshot_Stable(t *testing.T) {
	a := &Matcher{Pattern: regexp.MustCompile(`a`)}
	b := &Matcher{Pattern: regexp.MustCompile(`b`)}

	set := NewSet()
	set.Add(a)
	set.Add(b)

	snapshot := set.Snapshot()

	_, err := set.Dispatch("a")
	require.NoError(t, err)
	set.Add(&Matcher{Pattern: regexp.MustCompile(`c`)})

	require.Equal(t, []*Matcher{a, b}, snapshot)
	require.Equal(t, 2, set.Len())
}

// TestSet_ConcurrentAdd tests that concurrent registration is safe.
func TestSet_ConcurrentAdd(t *testing.T) {
	set := NewSet()

	var wg sync.WaitGroup

	for range 20 {
		wg.Go(func() {
			set.Add(&Matcher{Pattern: regexp.MustCompile(`x`), MatchMany: true})
		})
	}

	wg.Wait()

	require.Equal(t, 20, set.Len())
}

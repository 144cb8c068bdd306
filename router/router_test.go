package router

import (
	"context"
	"errors"
	"testing"

	"github.com/amp-labs/amp-workflow/statemachine"
	"github.com/amp-labs/amp-workflow/tests"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errReaction = errors.New("reaction blew up")

func newTestRouter(t *testing.T, opts ...Option) *Router {
	t.Helper()

	opts = append([]Option{WithLogger(NewSlogLogger(slogt.New(t)))}, opts...)

	return New(opts...)
}

// echoConductor relays Notify back to the router so reentrant chains extend
// the in-flight one. The remaining Conductor surface is inert.
type echoConductor struct {
	router *Router
}

func (c *echoConductor) Perform(context.Context, Action) error {
	return nil
}

func (c *echoConductor) UndoLast(context.Context) error {
	return nil
}

func (c *echoConductor) CurrentState() statemachine.State {
	return "Draft"
}

func (c *echoConductor) Notify(ctx context.Context, from Participant, sig Signal) error {
	return c.router.Notify(ctx, c, from, sig)
}

func react(order *[]string, name string) Reaction {
	return func(_ context.Context, _ Conductor, _ Participant, _ Signal) error {
		*order = append(*order, name)

		return nil
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)

	err := rt.Register("", nil)
	assert.ErrorIs(t, err, ErrParticipantRequired)

	err = rt.Register("editor", []Binding{{React: react(nil, "x")}})
	assert.ErrorIs(t, err, ErrSignalRequired)

	err = rt.Register("editor", []Binding{{Signal: "submitted"}})
	assert.ErrorIs(t, err, ErrNilReaction)
}

func TestNotifyRunsMatchingReactionsInOrder(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)
	ctx := tests.GetUniqueContext(t)
	conductor := &echoConductor{router: rt}

	var order []string

	require.NoError(t, rt.Register("editor", []Binding{
		{Signal: "submitted", React: react(&order, "first")},
		{Signal: "rejected", React: react(&order, "skipped")},
		{Signal: "submitted", React: react(&order, "second")},
	}))

	require.NoError(t, rt.Notify(ctx, conductor, "editor", "submitted"))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestNotifyPassesSenderAndSignal(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)
	ctx := tests.GetUniqueContext(t)
	conductor := &echoConductor{router: rt}

	var gotFrom Participant

	var gotSig Signal

	require.NoError(t, rt.Register("editor", []Binding{
		{Signal: "submitted", React: func(_ context.Context, _ Conductor, from Participant, sig Signal) error {
			gotFrom, gotSig = from, sig

			return nil
		}},
	}))

	require.NoError(t, rt.Notify(ctx, conductor, "editor", "submitted"))

	assert.Equal(t, Participant("editor"), gotFrom)
	assert.Equal(t, Signal("submitted"), gotSig)
}

func TestNotifyUnknownIsNoOp(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)
	ctx := tests.GetUniqueContext(t)
	conductor := &echoConductor{router: rt}

	require.NoError(t, rt.Notify(ctx, conductor, "stranger", "submitted"))

	assert.ErrorIs(t, rt.Notify(ctx, conductor, "", "submitted"), ErrParticipantRequired)
}

func TestRegisterReplacesBindings(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)
	ctx := tests.GetUniqueContext(t)
	conductor := &echoConductor{router: rt}

	var order []string

	require.NoError(t, rt.Register("editor", []Binding{
		{Signal: "submitted", React: react(&order, "old")},
	}))
	require.NoError(t, rt.Register("editor", []Binding{
		{Signal: "submitted", React: react(&order, "new")},
	}))

	require.NoError(t, rt.Notify(ctx, conductor, "editor", "submitted"))

	assert.Equal(t, []string{"new"}, order)
	assert.Len(t, rt.Bindings("editor"), 1)
}

func TestNotifyFirstErrorStopsChain(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)
	ctx := tests.GetUniqueContext(t)
	conductor := &echoConductor{router: rt}

	secondRan := false

	require.NoError(t, rt.Register("editor", []Binding{
		{Signal: "submitted", React: func(_ context.Context, _ Conductor, _ Participant, _ Signal) error {
			return errReaction
		}},
		{Signal: "submitted", React: func(_ context.Context, _ Conductor, _ Participant, _ Signal) error {
			secondRan = true

			return nil
		}},
	}))

	err := rt.Notify(ctx, conductor, "editor", "submitted")
	assert.ErrorIs(t, err, errReaction)
	assert.False(t, secondRan, "reactions after the first error must not run")
}

func TestNotifyReactionPanicPropagates(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)
	ctx := tests.GetUniqueContext(t)
	conductor := &echoConductor{router: rt}

	require.NoError(t, rt.Register("editor", []Binding{
		{Signal: "submitted", React: func(_ context.Context, _ Conductor, _ Participant, _ Signal) error {
			panic("boom")
		}},
	}))

	err := rt.Notify(ctx, conductor, "editor", "submitted")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestDeregisterIsIdempotent(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)
	ctx := tests.GetUniqueContext(t)
	conductor := &echoConductor{router: rt}

	ran := false

	require.NoError(t, rt.Register("editor", []Binding{
		{Signal: "submitted", React: func(_ context.Context, _ Conductor, _ Participant, _ Signal) error {
			ran = true

			return nil
		}},
	}))

	rt.Deregister("editor")
	rt.Deregister("editor")
	rt.Deregister("stranger")

	require.NoError(t, rt.Notify(ctx, conductor, "editor", "submitted"))
	assert.False(t, ran)
	assert.Empty(t, rt.Participants())
}

func TestNotifyDepthGuard(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t, WithMaxDepth(3))
	ctx := tests.GetUniqueContext(t)
	conductor := &echoConductor{router: rt}

	runs := 0

	// The reaction re-notifies its own signal, an unterminated cycle.
	require.NoError(t, rt.Register("editor", []Binding{
		{Signal: "submitted", React: func(ctx context.Context, c Conductor, _ Participant, _ Signal) error {
			runs++

			return c.Notify(ctx, "editor", "submitted")
		}},
	}))

	err := rt.Notify(ctx, conductor, "editor", "submitted")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoutingCycle)

	var cycleErr *CycleError

	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, Participant("editor"), cycleErr.Participant)
	assert.Equal(t, Signal("submitted"), cycleErr.Signal)
	assert.Equal(t, 4, cycleErr.Depth)

	// Links within the limit all ran before the guard tripped.
	assert.Equal(t, 3, runs)

	// A fresh top-level notification starts a fresh chain.
	runs = 0
	err = rt.Notify(tests.GetUniqueContext(t), conductor, "editor", "submitted")
	assert.ErrorIs(t, err, ErrRoutingCycle)
	assert.Equal(t, 3, runs)
}

func TestParticipantsAreSorted(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)

	noop := func(_ context.Context, _ Conductor, _ Participant, _ Signal) error { return nil }

	for _, p := range []Participant{"editor10", "editor2", "auditor"} {
		require.NoError(t, rt.Register(p, []Binding{{Signal: "ping", React: noop}}))
	}

	assert.Equal(t,
		[]Participant{"auditor", "editor2", "editor10"},
		rt.Participants(),
	)
}

func TestBindingsReturnsCopy(t *testing.T) {
	t.Parallel()

	rt := newTestRouter(t)

	noop := func(_ context.Context, _ Conductor, _ Participant, _ Signal) error { return nil }

	require.NoError(t, rt.Register("editor", []Binding{{Signal: "submitted", React: noop}}))

	bindings := rt.Bindings("editor")
	bindings[0].Signal = "tampered"

	assert.Equal(t, Signal("submitted"), rt.Bindings("editor")[0].Signal)
}

package coordinator_test

import (
	"context"
	"fmt"
	"log"

	"github.com/amp-labs/amp-workflow/coordinator"
	"github.com/amp-labs/amp-workflow/eventbus"
	"github.com/amp-labs/amp-workflow/router"
	"github.com/amp-labs/amp-workflow/statemachine"
)

// ExampleNew demonstrates performing a reversible action and undoing it.
func ExampleNew() {
	ctx := context.Background()

	machine, err := statemachine.New("Draft", []statemachine.Rule{
		{From: "Draft", Trigger: "submit", To: "Moderation"},
	}, statemachine.WithLogger(statemachine.NopLogger{}))
	if err != nil {
		log.Fatal(err)
	}

	c, err := coordinator.New(machine, coordinator.WithLogger(coordinator.NopLogger{}))
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	// Print every transition, forward and reverted alike.
	print := func(_ context.Context, evt eventbus.Event) error {
		from, _ := evt.StringField("from")
		to, _ := evt.StringField("to")
		fmt.Printf("%s -> %s\n", from, to)

		return nil
	}

	for _, topic := range []eventbus.Topic{eventbus.TopicStateChanged, eventbus.TopicStateReverted} {
		if _, err := c.On("printer", topic, print); err != nil {
			log.Fatal(err)
		}
	}

	if err := c.Perform(ctx, coordinator.Action{Trigger: "submit"}); err != nil {
		log.Fatal(err)
	}

	fmt.Println("state:", c.CurrentState())

	if err := c.UndoLast(ctx); err != nil {
		log.Fatal(err)
	}

	fmt.Println("state:", c.CurrentState())

	// Output:
	// Draft -> Moderation
	// state: Moderation
	// Moderation -> Draft
	// state: Draft
}

// ExampleCoordinator_Register demonstrates a reaction performing a follow-up
// action through the Conductor handle.
func ExampleCoordinator_Register() {
	ctx := context.Background()

	machine, err := statemachine.New("Draft", []statemachine.Rule{
		{From: "Draft", Trigger: "submit", To: "Moderation"},
		{From: "Moderation", Trigger: "approve", To: "Published"},
	}, statemachine.WithLogger(statemachine.NopLogger{}))
	if err != nil {
		log.Fatal(err)
	}

	c, err := coordinator.New(machine, coordinator.WithLogger(coordinator.NopLogger{}))
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	// Submitted documents are approved automatically.
	err = c.Register(coordinator.DefaultParticipant, []router.Binding{
		{Signal: "submit", React: func(ctx context.Context, h router.Conductor, _ router.Participant, _ router.Signal) error {
			return h.Perform(ctx, coordinator.Action{Trigger: "approve"})
		}},
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := c.Perform(ctx, coordinator.Action{Trigger: "submit"}); err != nil {
		log.Fatal(err)
	}

	fmt.Println("state:", c.CurrentState())
	fmt.Println("undoable:", c.Depth())

	// Output:
	// state: Published
	// undoable: 2
}

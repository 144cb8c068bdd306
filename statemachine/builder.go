package statemachine

import (
	"errors"
	"fmt"
)

// Builder provides a fluent API for constructing machines. Rule table
// mistakes (hooks on missing rules) are collected and surfaced by Build
// together with the construction-time validation.
type Builder struct {
	name    string
	initial State
	rules   []Rule
	errs    []error
}

// NewBuilder creates a new machine builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithName names the machine.
func (b *Builder) WithName(name string) *Builder {
	b.name = name

	return b
}

// WithInitial sets the initial state.
func (b *Builder) WithInitial(state State) *Builder {
	b.initial = state

	return b
}

// AddRule adds a transition rule without hooks.
func (b *Builder) AddRule(from State, trigger Trigger, to State) *Builder {
	b.rules = append(b.rules, Rule{
		From:    from,
		Trigger: trigger,
		To:      to,
	})

	return b
}

// WithGuard attaches a guard to the rule for (from, trigger). The rule must
// already exist.
func (b *Builder) WithGuard(from State, trigger Trigger, guard Guard) *Builder {
	rule := b.find(from, trigger)
	if rule == nil {
		b.errs = append(b.errs, fmt.Errorf("guard: %w: %s/%s", ErrRuleNotFound, from, trigger))

		return b
	}

	rule.Guard = guard

	return b
}

// WithEffect attaches an effect to the rule for (from, trigger). The rule
// must already exist.
func (b *Builder) WithEffect(from State, trigger Trigger, effect Effect) *Builder {
	rule := b.find(from, trigger)
	if rule == nil {
		b.errs = append(b.errs, fmt.Errorf("effect: %w: %s/%s", ErrRuleNotFound, from, trigger))

		return b
	}

	rule.Effect = effect

	return b
}

// FromConfig seeds the builder with a configuration's name, initial state,
// and rules. Hooks attach afterwards via WithGuard and WithEffect.
func (b *Builder) FromConfig(cfg *Config) *Builder {
	if cfg == nil {
		b.errs = append(b.errs, ErrConfigNameRequired)

		return b
	}

	b.name = cfg.Name
	b.initial = State(cfg.Initial)

	for _, rule := range cfg.Rules {
		b.AddRule(State(rule.From), Trigger(rule.Trigger), State(rule.To))
	}

	return b
}

// Build constructs the machine.
func (b *Builder) Build(opts ...Option) (*Machine, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	if b.name != "" {
		opts = append([]Option{WithName(b.name)}, opts...)
	}

	return New(b.initial, b.rules, opts...)
}

// find returns the rule for (from, trigger), or nil.
func (b *Builder) find(from State, trigger Trigger) *Rule {
	for i := range b.rules {
		if b.rules[i].From == from && b.rules[i].Trigger == trigger {
			return &b.rules[i]
		}
	}

	return nil
}

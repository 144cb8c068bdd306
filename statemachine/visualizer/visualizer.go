// Package visualizer generates Mermaid diagrams from machine rule tables.
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-workflow/statemachine"
)

// Visualizer errors.
var (
	ErrConfigNil      = errors.New("config cannot be nil")
	ErrNoInitialState = errors.New("config must have an initial state")
)

// GenerateMermaid converts a Config to a Mermaid state diagram.
func GenerateMermaid(config *statemachine.Config) (string, error) {
	return GenerateMermaidWithOptions(config, DefaultOptions())
}

// GenerateMermaidFromFile loads a config by path or name and generates a
// Mermaid diagram.
func GenerateMermaidFromFile(pathOrName string) (string, error) {
	config, err := statemachine.LoadConfig(pathOrName)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateMermaid(config)
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
// States and their outgoing edges are natural-sorted so the output is stable
// across runs.
func GenerateMermaidWithOptions(config *statemachine.Config, opts Options) (string, error) {
	if config == nil {
		return "", ErrConfigNil
	}

	if config.Initial == "" {
		return "", ErrNoInitialState
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")

	if opts.Direction != "" {
		sb.WriteString("    direction " + opts.Direction + "\n")
	}

	sb.WriteString(fmt.Sprintf("    [*] --> %s\n", config.Initial))

	highlighted := make(map[string]bool)
	for _, state := range opts.HighlightStates {
		highlighted[state] = true
	}

	// Group outgoing edges by source state.
	edges := make(map[string][]string)

	for _, rule := range config.Rules {
		label := ""
		if opts.ShowTriggers {
			label = ": " + rule.Trigger
		}

		edges[rule.From] = append(edges[rule.From],
			fmt.Sprintf("    %s --> %s%s\n", rule.From, rule.To, label))
	}

	for _, state := range collectStates(config) {
		if highlighted[state] {
			sb.WriteString(fmt.Sprintf("    class %s highlighted\n", state))
		}

		rows := edges[state]
		natsort.Sort(rows)

		for _, row := range rows {
			sb.WriteString(row)
		}
	}

	if len(opts.HighlightStates) > 0 {
		sb.WriteString("\n")
		sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
	}

	sb.WriteString("```\n")

	return sb.String(), nil
}

// collectStates returns every state the config names, natural-sorted.
func collectStates(config *statemachine.Config) []string {
	seen := map[string]bool{config.Initial: true}
	states := []string{config.Initial}

	for _, rule := range config.Rules {
		for _, state := range []string{rule.From, rule.To} {
			if !seen[state] {
				seen[state] = true

				states = append(states, state)
			}
		}
	}

	natsort.Sort(states)

	return states
}

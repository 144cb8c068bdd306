package visualizer

// Options shapes the rendered diagram.
type Options struct {
	// ShowTriggers labels each transition edge with its trigger
	ShowTriggers bool

	// Direction is the Mermaid flow direction, "TD" or "LR"
	Direction string

	// HighlightStates marks the named states with the highlight class
	HighlightStates []string
}

// DefaultOptions renders top-down with trigger labels and no highlights.
func DefaultOptions() Options {
	return Options{
		ShowTriggers: true,
		Direction:    "TD",
	}
}

// WithShowTriggers toggles trigger labels on edges.
func (o Options) WithShowTriggers(show bool) Options {
	o.ShowTriggers = show

	return o
}

// WithDirection sets the Mermaid flow direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightStates picks states to highlight.
func (o Options) WithHighlightStates(states []string) Options {
	o.HighlightStates = states

	return o
}

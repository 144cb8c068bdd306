package errors

import "errors"

// Collection is a thread-unsafe utility for accumulating multiple errors.
// It provides methods to add errors, check for errors, and retrieve them as a single combined error.
// The event bus records listener failures in a bounded Collection so a noisy
// listener cannot grow memory without limit; callers that share a Collection
// across goroutines must hold their own lock.
type Collection struct {
	errors  []error
	limit   int
	dropped int
}

// NewBounded returns a Collection that retains at most limit errors.
// Once full, additional errors are counted but not stored. A limit of
// zero or less means unbounded, same as a zero-value Collection.
func NewBounded(limit int) *Collection {
	return &Collection{limit: limit}
}

// Add appends an error to the collection. Nil errors are automatically ignored.
// When a bounded collection is full, the error is dropped and counted instead.
func (c *Collection) Add(err error) {
	if err == nil {
		return
	}

	if c.limit > 0 && len(c.errors) >= c.limit {
		c.dropped++

		return
	}

	c.errors = append(c.errors, err)
}

// Clear removes all errors from the collection, resetting it to an empty state.
// The retention limit is preserved; the dropped count is reset.
func (c *Collection) Clear() {
	c.errors = nil
	c.dropped = 0
}

// HasError returns true if the collection contains at least one error.
func (c *Collection) HasError() bool {
	return len(c.errors) > 0
}

// Len returns the number of errors currently retained.
func (c *Collection) Len() int {
	return len(c.errors)
}

// Dropped returns the number of errors discarded because the collection was full.
func (c *Collection) Dropped() int {
	return c.dropped
}

// First returns the earliest retained error, or nil if the collection is empty.
func (c *Collection) First() error {
	if len(c.errors) == 0 {
		return nil
	}

	return c.errors[0]
}

// GetError returns the collected errors as a single error.
// Returns nil if the collection is empty, the single error if there's only one,
// or a joined error (using errors.Join) if there are multiple errors.
func (c *Collection) GetError() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return errors.Join(c.errors...)
	}
}

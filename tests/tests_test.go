package tests_test

import (
	"strings"
	"testing"

	"github.com/amp-labs/amp-workflow/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUniqueContext(t *testing.T) {
	t.Parallel()

	ctx := tests.GetUniqueContext(t)

	name, ok := tests.GetTestName(ctx)
	require.True(t, ok)
	assert.Equal(t, t.Name(), name)

	id, ok := tests.GetTestID(ctx)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(id, "test-"))

	inner, ok := tests.GetTest(ctx)
	require.True(t, ok)
	assert.Same(t, t, inner)
}

func TestGetUniqueContext_IDsAreUnique(t *testing.T) {
	t.Parallel()

	first, _ := tests.GetTestID(tests.GetUniqueContext(t))
	second, _ := tests.GetTestID(tests.GetUniqueContext(t))

	assert.NotEqual(t, first, second)
}

func TestGetTestInfo(t *testing.T) {
	t.Parallel()

	info, ok := tests.GetTestInfo(tests.GetUniqueContext(t))
	require.True(t, ok)
	assert.Equal(t, t.Name(), info.Name)
	assert.NotEmpty(t, info.ID)
	assert.Same(t, t, info.Test)

	// A bare context carries no metadata.
	_, ok = tests.GetTestInfo(t.Context())
	assert.False(t, ok)
}

func TestCheckSkipped(t *testing.T) {
	t.Setenv("TEST_SKIP_FLAG", "true")

	reached := false

	passed := t.Run("skipped", func(t *testing.T) {
		tests.CheckSkipped(t, "TEST_SKIP_FLAG")

		reached = true
	})

	assert.True(t, passed, "a skipped subtest still passes")
	assert.False(t, reached, "the subtest body must not run past the skip")

	t.Setenv("TEST_SKIP_FLAG", "false")

	t.Run("not skipped", func(t *testing.T) {
		tests.CheckSkipped(t, "TEST_SKIP_FLAG")

		reached = true
	})

	assert.True(t, reached)
}

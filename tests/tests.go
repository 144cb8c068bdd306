// Package tests carries per-test metadata through context.Context so log
// lines and recorded events can be correlated with the test that produced
// them. GetUniqueContext is the entry point; the Get* accessors read the
// metadata back anywhere the context travels.
package tests

import (
	"context"
	"testing"

	"github.com/amp-labs/amp-workflow/contexts"
	"github.com/amp-labs/amp-workflow/envutil"
	"github.com/google/uuid"
)

// contextKey keeps test metadata keys from colliding with other packages'.
type contextKey string

const (
	// testIDKey stores the unique test identifier, a UUID prefixed "test-".
	testIDKey contextKey = "testId"

	// testNameKey stores the full test name from testing.T.Name(), subtest
	// path included.
	testNameKey contextKey = "testName"

	// testTestKey stores the *testing.T itself.
	testTestKey contextKey = "testTest"
)

// GetUniqueContext derives a context from t.Context() carrying a fresh unique
// test ID, the test name, and the test handle. Kernel tests thread it through
// every operation so published events and log lines trace back to their test.
func GetUniqueContext(t *testing.T) context.Context {
	t.Helper()

	return contexts.WithMultipleValues[contextKey](t.Context(), map[contextKey]any{
		testTestKey: t,
		testIDKey:   "test-" + uuid.New().String(),
		testNameKey: t.Name(),
	})
}

// CheckSkipped skips the test when the named boolean environment variable is
// set to true. Lets an environment opt out of a test without code changes.
func CheckSkipped(t *testing.T, envKey string) {
	t.Helper()

	if envutil.Bool(envKey, envutil.Default(false)).ValueOrElse(false) {
		t.Skipf("Skipping test because of environment variable: %s=true", envKey)
	}
}

// GetTestName reads the test name from the context.
func GetTestName(ctx context.Context) (string, bool) {
	return contexts.GetValue[contextKey, string](ctx, testNameKey)
}

// GetTestID reads the unique test identifier from the context.
func GetTestID(ctx context.Context) (string, bool) {
	return contexts.GetValue[contextKey, string](ctx, testIDKey)
}

// GetTest reads the *testing.T from the context.
func GetTest(ctx context.Context) (*testing.T, bool) {
	return contexts.GetValue[contextKey, *testing.T](ctx, testTestKey)
}

// Info bundles the metadata GetUniqueContext attached.
type Info struct {
	Test *testing.T `json:"-"`
	ID   string     `json:"id"`
	Name string     `json:"name"`
}

// GetTestInfo reads all test metadata from the context at once. The second
// return is false only when none of the fields are present.
func GetTestInfo(ctx context.Context) (Info, bool) {
	name, nameOk := GetTestName(ctx)
	id, idOk := GetTestID(ctx)
	t, tOk := GetTest(ctx)

	if !nameOk && !idOk && !tOk {
		return Info{}, false
	}

	return Info{
		Test: t,
		ID:   id,
		Name: name,
	}, true
}

// Package testutil provides testing utilities for apimtpl
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// MinimalDocument declares one API with one operation deployed to one
// environment.
const MinimalDocument = `
apis:
  - name: orders
    operations:
      - name: list
        method: GET
environments:
  - name: prod
    configuration:
      serviceName: svc
`

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// ParseDocuments parses every YAML source, in order, into input documents
func ParseDocuments(t *testing.T, sources ...string) []*tree.Node {
	t.Helper()

	var docs []*tree.Node
	for _, src := range sources {
		nodes, err := tree.ParseBytes([]byte(src))
		require.NoError(t, err)
		docs = append(docs, nodes...)
	}
	return docs
}

// Violations returns the messages of a failed stage, failing the test when
// err is not a stage error
func Violations(t *testing.T, err error) []string {
	t.Helper()

	var stageErr *errors.StageError
	require.True(t, errors.As(err, &stageErr), "expected a stage error, got %v", err)

	out := make([]string, 0, len(stageErr.Violations()))
	for _, v := range stageErr.Violations() {
		out = append(out, v.Error())
	}
	return out
}

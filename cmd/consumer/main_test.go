package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunReturnsExitCodeOnBootstrapFailure(t *testing.T) {
	t.Setenv("LOG_MODE", "prod")
	t.Setenv("SENTRY_DSN", "")
	t.Setenv("CUTOFF_POLICY", "monthly")

	// a failed bootstrap reports through the return value instead of exiting the process
	require.Equal(t, 1, run())
}

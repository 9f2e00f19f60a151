package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsNonPositiveRecursionDepth(t *testing.T) {
	cfg := &Config{RecursionDepth: 0, ConvergenceIterations: 4, LogLevel: "info"}
	require.Error(t, validate(cfg))
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := &Config{RecursionDepth: 100, ConvergenceIterations: 4, LogLevel: "trace"}
	require.Error(t, validate(cfg))
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := &Config{RecursionDepth: 100, ConvergenceIterations: 4, LogLevel: "warn"}
	require.NoError(t, validate(cfg))
}

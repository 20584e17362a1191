package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestIsDevelopment(t *testing.T) {
	for _, env := range []string{"", "dev", "DEV", " development ", "local", "test"} {
		assert.True(t, IsDevelopment(env), env)
	}
	for _, env := range []string{"prod", "production", "release", "staging", "qa"} {
		assert.False(t, IsDevelopment(env), env)
	}
}

func TestNew_StagingUsesJSON(t *testing.T) {
	l, err := New("staging")
	require.NoError(t, err)
	require.NotNil(t, l)
	// the production config starts at info
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestNew_DevLogsDebug(t *testing.T) {
	l, err := New("dev")
	require.NoError(t, err)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}

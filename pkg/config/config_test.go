package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	d, err := cfg.ParsedStreamTimeout()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)
}

func TestValidateRejectsBadURL(t *testing.T) {
	cfg := Default()
	cfg.ServerURL = "not a url"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadTimeout(t *testing.T) {
	cfg := Default()
	cfg.StreamTimeout = "five minutes"
	assert.Error(t, cfg.Validate())
}

func TestParsedStreamTimeoutDisabled(t *testing.T) {
	cfg := Default()
	cfg.StreamTimeout = "0"
	d, err := cfg.ParsedStreamTimeout()
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestResolveServerURLPrecedence(t *testing.T) {
	cfg := Default()
	cfg.ServerURL = "http://from-config:8000"

	const env = "AGENTCHAT_TEST_SERVER_URL"
	t.Setenv(env, "http://from-env:8000")

	assert.Equal(t, "http://from-flag:8000", ResolveServerURL("http://from-flag:8000", env, cfg))
	assert.Equal(t, "http://from-env:8000", ResolveServerURL("", env, cfg))

	t.Setenv(env, "")
	assert.Equal(t, "http://from-config:8000", ResolveServerURL("", env, cfg))
}

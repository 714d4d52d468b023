package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConfigurationOverridesNonZeroFlags(t *testing.T) {
	cfg := Default()

	mgr := NewConfigManager(cfg)
	mgr.RegisterFlag("appName", "weather_agent")
	mgr.RegisterFlag("userId", "")

	merged := mgr.MergeConfiguration()
	require.NotNil(t, merged)

	assert.Equal(t, "weather_agent", merged.AppName)
	assert.Equal(t, DefaultUserID, merged.UserID, "empty flag must not override config")
	assert.Equal(t, DefaultServerURL, merged.ServerURL, "unregistered keys stay untouched")
}

func TestMergeConfigurationSkipsBlankValues(t *testing.T) {
	cfg := Default()

	mgr := NewConfigManager(cfg)
	mgr.RegisterFlag("serverURL", "   ")
	mgr.RegisterFlag("streamTimeout", "90s")

	merged := mgr.MergeConfiguration()
	assert.Equal(t, DefaultServerURL, merged.ServerURL, "whitespace flag must not override config")
	assert.Equal(t, "90s", merged.StreamTimeout)
}

func TestMergeConfigurationIgnoresUnknownKeys(t *testing.T) {
	cfg := Default()

	mgr := NewConfigManager(cfg)
	mgr.RegisterFlag("noSuchKey", "value")

	merged := mgr.MergeConfiguration()
	assert.Equal(t, Default(), merged)
}

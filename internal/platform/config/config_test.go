package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.SweepInterval)
	assert.Equal(t, time.Hour, cfg.SweepErrorBackoff)
	assert.Equal(t, "aircrew.audit", cfg.AuditTopic)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AIRCREW_ADDR", ":9000")
	t.Setenv("ADMIN_CHAT_ID", "393293807")
	t.Setenv("SWEEP_INTERVAL_HOURS", "6")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, int64(393293807), cfg.AdminChatID)
	assert.Equal(t, 6*time.Hour, cfg.SweepInterval)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("ADMIN_CHAT_ID", "not-a-number")
	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("ADMIN_CHAT_ID", "1")
	t.Setenv("SWEEP_INTERVAL_HOURS", "0")
	_, err = FromEnv()
	require.Error(t, err)
}

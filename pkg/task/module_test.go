package task

import (
	"testing"

	"incentiva-engine/pkg/config"

	"github.com/stretchr/testify/require"
)

func TestServerConfigDefaults(t *testing.T) {
	got := serverConfig(&config.Config{})

	require.Equal(t, 10, got.Concurrency)
	require.Equal(t, map[string]int{"critical": 10, "default": 5, "low": 3}, got.Queues)
	require.NotNil(t, got.ErrorHandler)
}

func TestServerConfigFromConfigBlock(t *testing.T) {
	cfg := &config.Config{}
	cfg.Asynq.Concurrency = 4
	cfg.Asynq.Queues = map[string]int{"critical": 2, "default": 1}

	got := serverConfig(cfg)

	require.Equal(t, 4, got.Concurrency)
	require.Equal(t, map[string]int{"critical": 2, "default": 1}, got.Queues)
}

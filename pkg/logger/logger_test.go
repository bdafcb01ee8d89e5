package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/optiflow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesServiceFields(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")
	log, err := New(
		config.LogConfig{Level: "info", Format: "json", OutputPath: out},
		config.AppConfig{Name: "optiflow-api", Environment: "test", Version: "1.2.3"},
	)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("booked")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	body := string(raw)
	assert.NotContains(t, body, "hidden")
	assert.Contains(t, body, `"msg":"booked"`)
	assert.Contains(t, body, `"service":"optiflow-api"`)
	assert.Contains(t, body, `"version":"1.2.3"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Format: "json", OutputPath: "stdout"}, config.AppConfig{})
	assert.Error(t, err)
}

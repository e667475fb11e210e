package main

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzahanych/emotion-stream/internal/config"
	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/logger"
	"github.com/vzahanych/emotion-stream/internal/state"
)

func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := fmt.Sprintf(`
log:
  level: error
storage:
  enabled: true
  db_path: %s
chart:
  width: 400
  height: 300
`, dbPath)
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func TestChartCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "emotions.db")
	cfgPath := writeConfig(t, dbPath)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	mgr, err := state.NewManager(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	for _, l := range []emotion.Label{emotion.Happy, emotion.Sad, emotion.Happy} {
		require.NoError(t, mgr.SaveSample(context.Background(), &state.Sample{Label: l}))
	}
	require.NoError(t, mgr.Close())

	out := filepath.Join(t.TempDir(), "chart.png")
	rootCmd.SetArgs([]string{"chart", "--config", cfgPath, "--output", out})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestChartCommand_MissingDatabase(t *testing.T) {
	cfgPath := writeConfig(t, filepath.Join(t.TempDir(), "absent.db"))

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"chart", "-c", cfgPath, "-o", "-"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sample database")
}

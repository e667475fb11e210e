//go:build linux

package v4l2

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelFormatIsMJPG(t *testing.T) {
	assert.Equal(t, uint32(0x47504a4d), uint32(pixFmtMJPEG))
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open(context.Background(), Config{
		DevicePath: filepath.Join(t.TempDir(), "video9"),
		Width:      640,
		Height:     480,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video9")
}

func TestOpen_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Opener(Config{DevicePath: "/dev/video0"})(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

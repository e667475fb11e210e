//go:build !opencv

package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vzahanych/emotion-stream/internal/camera/opencv"
	"github.com/vzahanych/emotion-stream/internal/config"
)

func TestOpener_DeviceWithoutOpenCV(t *testing.T) {
	cfg := config.Default().Camera
	assert.Equal(t, config.SourceDevice, cfg.Source)

	_, err := Opener(cfg)(context.Background())
	assert.ErrorIs(t, err, opencv.ErrUnavailable)
}

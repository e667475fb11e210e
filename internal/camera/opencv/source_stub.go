//go:build !opencv

package opencv

import (
	"context"

	"github.com/vzahanych/emotion-stream/internal/camera"
)

// Opener reports that this build has no OpenCV support
func Opener(cfg Config) camera.Opener {
	return func(ctx context.Context) (camera.Source, error) {
		return nil, ErrUnavailable
	}
}

// Package video turns camera frames into an annotated multipart JPEG stream.
package video

import (
	"image"
	"time"

	"github.com/vzahanych/emotion-stream/internal/emotion"
)

// Frame is one captured image and what the classifier made of it.
// It lives for a single loop iteration and is never persisted.
type Frame struct {
	SessionID  string
	Seq        int
	CapturedAt time.Time
	Image      image.Image
	Result     emotion.Result
}

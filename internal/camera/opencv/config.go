// Package opencv opens the system camera through OpenCV. OpenCV support is
// compiled in with the opencv build tag; without it Opener reports
// ErrUnavailable and the v4l2 or mjpeg sources remain usable.
package opencv

import "errors"

// ErrUnavailable is returned by Opener in builds without the opencv tag
var ErrUnavailable = errors.New("camera source \"device\" needs OpenCV: rebuild with -tags opencv or use camera.source v4l2 or mjpeg")

// Config selects the device and requested resolution
type Config struct {
	DeviceIndex int
	Width       int
	Height      int
}

//go:build !unix

package state

import "errors"

func statDisk(path string) (*DiskUsage, error) {
	return nil, errors.New("disk usage is not supported on this platform")
}

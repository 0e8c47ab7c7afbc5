//go:build !linux && !darwin

package storage

import "errors"

// DiskUsage is not available on this platform.
func DiskUsage(string) (Usage, error) {
	return Usage{}, errors.New("disk usage not supported")
}

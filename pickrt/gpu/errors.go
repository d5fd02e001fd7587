package gpu

import "errors"

var (
	// ErrMapFailed is returned when the staging buffer could not be mapped
	// for reading after the copy.
	ErrMapFailed = errors.New("gpu: pick readback map failed")
	ErrNoTarget  = errors.New("gpu: pick target not allocated")
)

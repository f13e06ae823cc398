//go:build !nogpu

package device

import "github.com/pkg/errors"

func GPUAvailable() bool {
	return true
}

// NewGPU returns the accelerator with the given id. Only device 0 exists.
func NewGPU(id int) (Device, error) {
	if id != 0 {
		return nil, errors.Errorf("invalid device id: %d", id)
	}
	return NewEmulated(id), nil
}

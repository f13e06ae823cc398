//go:build nogpu

package device

import "github.com/pkg/errors"

func GPUAvailable() bool {
	return false
}

func NewGPU(id int) (Device, error) {
	return nil, errors.New("gpu device is not available in this build")
}

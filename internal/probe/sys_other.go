//go:build !linux

package probe

import "errors"

type unsupportedOps struct{}

func systemOps() deviceOps {
	return unsupportedOps{}
}

func (unsupportedOps) stat(string) (bool, error) { return false, errors.ErrUnsupported }
func (unsupportedOps) open(string) (int, error)  { return -1, errors.ErrUnsupported }
func (unsupportedOps) close(int) error           { return nil }

func (unsupportedOps) queryCapabilities(int) (Capability, error) {
	return Capability{}, errors.ErrUnsupported
}

func (unsupportedOps) requestBuffers(int, uint32) error { return errors.ErrUnsupported }

//go:build !linux

package netif

import "net"

// probe falls back to the portable interface enumeration on platforms
// without the flags ioctl wrappers.
type probe struct{}

func newProbe() (*probe, error) {
	return &probe{}, nil
}

func (p *probe) close() {}

func (p *probe) isUp(name string) (bool, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		// Missing interfaces count as down.
		return false, nil
	}
	return ifi.Flags&net.FlagUp != 0, nil
}

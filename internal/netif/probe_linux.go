package netif

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// probe holds a datagram socket used only for interface flag ioctls.
type probe struct {
	fd int
}

func newProbe() (*probe, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open probe socket: %w", err)
	}
	return &probe{fd: fd}, nil
}

func (p *probe) close() {
	_ = unix.Close(p.fd)
}

// isUp reads the interface flags through SIOCGIFFLAGS. An interface that
// does not exist (yet?) counts as down.
func (p *probe) isUp(name string) (bool, error) {
	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return false, fmt.Errorf("interface %s: %w", name, err)
	}
	if err := unix.IoctlIfreq(p.fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		if err == unix.ENODEV {
			return false, nil
		}
		return false, fmt.Errorf("failed to read flags of %s: %w", name, err)
	}
	return ifr.Uint16()&unix.IFF_UP != 0, nil
}

package netif

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// AllUp reports whether every named interface exists and carries the up
// flag. Interfaces that are down or absent are logged individually.
func AllUp(log *logrus.Logger, names []string) (bool, error) {
	log.Infof("checking whether interfaces are up: %s", strings.Join(names, " "))

	p, err := newProbe()
	if err != nil {
		return false, err
	}
	defer p.close()

	all := true
	for _, name := range names {
		up, err := p.isUp(name)
		if err != nil {
			return false, err
		}
		if !up {
			log.Warnf("required interface '%s' is down", name)
			all = false
		}
	}
	return all, nil
}

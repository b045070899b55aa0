// Package daemon runs the forwarding plane for the lifetime of the process:
// it rebuilds the router until the interface topology is ready and tears
// everything down on termination.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"

	"mcv4fwdd/internal/config"
	"mcv4fwdd/internal/netif"
	"mcv4fwdd/internal/router"
)

// resetDelay is how long the supervisor waits before another build attempt.
const resetDelay = 5 * time.Second

// errNotReady marks a build attempt abandoned because a required interface
// is down or absent.
var errNotReady = errors.New("required interfaces are down or absent")

// Supervisor holds the configuration. Run owns the current router instance,
// which is absent while waiting for a retry.
type Supervisor struct {
	log *logrus.Logger
	cfg *config.Configuration
}

func New(log *logrus.Logger, cfg *config.Configuration) *Supervisor {
	return &Supervisor{log: log, cfg: cfg}
}

// Run builds the router, retrying with a fixed delay while the interface
// topology is not ready or the build fails, then drives it until ctx is
// canceled. A runtime I/O failure is returned; the caller is expected to
// exit nonzero.
func (s *Supervisor) Run(ctx context.Context) error {
	delay := backoff.NewConstantBackOff(resetDelay)
	for {
		rt, retry, err := s.build()
		if err != nil && !retry {
			return err
		}
		if rt == nil {
			if err != nil && !errors.Is(err, errNotReady) {
				s.log.Errorf("router configuration failed: %v", err)
			}
			select {
			case <-time.After(delay.NextBackOff()):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		rt.Start()
		err = rt.Run(ctx)
		rt.Close()
		return err
	}
}

// Test performs a single build attempt without running the event loop, as
// behind the -n flag. Sockets opened by the attempt are closed again.
func (s *Supervisor) Test() error {
	rt, _, err := s.build()
	if rt != nil {
		rt.Close()
	}
	return err
}

// build is one BUILDING attempt. A nil router with retry set means the
// supervisor should wait and try again; without retry the error is fatal.
func (s *Supervisor) build() (rt *router.Router, retry bool, err error) {
	ready, err := netif.AllUp(s.log, s.cfg.Interfaces())
	if err != nil {
		return nil, false, err
	}
	if !ready {
		return nil, true, errNotReady
	}

	// All interfaces should be up at this point.
	addrs, err := netif.Enumerate()
	if err != nil {
		return nil, true, err
	}

	rt = router.New(s.log)
	if err := s.configure(rt, addrs); err != nil {
		rt.Close()
		return nil, true, err
	}
	return rt, false, nil
}

// configure translates the parsed configuration into run-time routing rules.
func (s *Supervisor) configure(rt *router.Router, addrs netif.AddrMap) error {
	for _, svc := range s.cfg.Services {
		endpoint := svc.Endpoint()
		for _, rule := range svc.Rules {
			source, sourceRun, err := s.resolve(addrs, rule.From, "joining receiver")
			if err != nil {
				return err
			}
			destination, _, err := s.resolve(addrs, rule.To, "configuring sender")
			if err != nil {
				return err
			}

			networks := acceptedSourceNetworks(rule, sourceRun)

			if err := rt.AddRule(endpoint, source, networks, destination); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolve finds the first address of the named interface in the address map
// and warns when the interface carries more than one.
func (s *Supervisor) resolve(addrs netif.AddrMap, name, purpose string) (netif.Addr, []netif.Addr, error) {
	run := addrs.Lookup(name)
	if len(run) == 0 {
		return netif.Addr{}, nil, fmt.Errorf("failed to identify IPv4 network for interface %s", name)
	}
	if len(run) > 1 {
		s.log.Warnf("interface %s has multiple IPv4 addresses; %s on %s", name, purpose, run[0].Network)
	}
	return run[0], run, nil
}

// acceptedSourceNetworks returns the networks whose datagrams the rule
// accepts: the explicit list when given, otherwise the masked networks of
// every address on the source interface (duplicates permitted).
func acceptedSourceNetworks(rule config.ForwardingRule, sourceRun []netif.Addr) []config.Network {
	if len(rule.SourceNetworks) > 0 {
		return rule.SourceNetworks
	}
	networks := make([]config.Network, 0, len(sourceRun))
	for _, a := range sourceRun {
		networks = append(networks, a.Network.Masked())
	}
	return networks
}

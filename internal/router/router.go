// Package router implements the forwarding plane: one receiver per
// multicast endpoint, one sender per outbound interface address, and the
// routing rules between them, all driven by a single event loop.
package router

import (
	"context"
	"net/netip"
	"sort"

	"github.com/sirupsen/logrus"

	"mcv4fwdd/internal/config"
	"mcv4fwdd/internal/netif"
)

// Router owns the forwarders and senders built from one configuration. It is
// immutable once started; the supervisor builds a fresh Router on every
// rebuild.
type Router struct {
	log        *logrus.Logger
	events     chan event
	stop       chan struct{}
	forwarders map[netip.AddrPort]*Forwarder
	senders    map[netip.Addr]*Sender
	closed     bool
}

func New(log *logrus.Logger) *Router {
	return &Router{
		log:        log,
		events:     make(chan event),
		stop:       make(chan struct{}),
		forwarders: make(map[netip.AddrPort]*Forwarder),
		senders:    make(map[netip.Addr]*Sender),
	}
}

// AddRule wires one forwarding rule: the forwarder for the endpoint joins
// the group on the source interface, and every accepted source network is
// routed to the sender of the destination interface. Forwarders are shared
// per endpoint and senders per outbound address.
func (r *Router) AddRule(endpoint netip.AddrPort, from netif.Addr, acceptedNetworks []config.Network, to netif.Addr) error {
	fwd, ok := r.forwarders[endpoint]
	if !ok {
		var err error
		fwd, err = newForwarder(r.log, r.events, r.stop, endpoint)
		if err != nil {
			return err
		}
		r.forwarders[endpoint] = fwd
	}

	if err := fwd.joinOnInterface(from.Iface, from.IP()); err != nil {
		return err
	}

	snd, ok := r.senders[to.IP()]
	if !ok {
		var err error
		snd, err = NewSender(r.log, r.events, r.stop, to.Iface, to.IP())
		if err != nil {
			return err
		}
		r.senders[to.IP()] = snd
	}

	for _, network := range acceptedNetworks {
		fwd.add(network, snd)
	}
	return nil
}

// Start begins receiving on every forwarder. Senders need no start step;
// the first queued datagram activates them.
func (r *Router) Start() {
	for _, endpoint := range r.endpoints() {
		fwd := r.forwarders[endpoint]
		fwd.start()
		r.log.Debugf("forwarder for %s: %d routes", endpoint, len(fwd.routes))
	}
	for _, snd := range r.senders {
		r.log.Debugf("sender on %s", snd.Addr())
	}
}

// Run drives the forwarding plane until ctx is canceled (returns nil) or an
// I/O failure aborts it (returns the error). All packet handling and queue
// mutation happens on the calling goroutine.
func (r *Router) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-r.events:
			switch ev := ev.(type) {
			case packetEvent:
				ev.handler.handlePacket(ev.src, ev.data)
			case sendDoneEvent:
				if err := ev.snd.finishSend(ev.n, ev.err); err != nil {
					return err
				}
			case ioErrorEvent:
				return ev.err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Close releases every socket and stops all receiver and sender goroutines.
// Queued datagrams are abandoned.
func (r *Router) Close() {
	if r.closed {
		return
	}
	r.closed = true
	close(r.stop)
	for _, fwd := range r.forwarders {
		fwd.close()
	}
	for _, snd := range r.senders {
		snd.close()
	}
}

func (r *Router) endpoints() []netip.AddrPort {
	endpoints := make([]netip.AddrPort, 0, len(r.forwarders))
	for endpoint := range r.forwarders {
		endpoints = append(endpoints, endpoint)
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Addr() != endpoints[j].Addr() {
			return endpoints[i].Addr().Less(endpoints[j].Addr())
		}
		return endpoints[i].Port() < endpoints[j].Port()
	})
	return endpoints
}

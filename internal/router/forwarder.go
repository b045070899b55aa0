package router

import (
	"net/netip"

	"github.com/sirupsen/logrus"

	"mcv4fwdd/internal/config"
)

const mdnsPort = 5353

// datagramSink accepts datagrams for asynchronous transmission. Sender is
// the production implementation; tests substitute a recorder.
type datagramSink interface {
	send(data []byte, endpoint netip.AddrPort)
}

// sourceRoute accepts datagrams originating from one source network and
// hands them to one sink.
type sourceRoute struct {
	network config.Network
	sink    datagramSink
}

// Forwarder is a Receiver that relays each accepted datagram to every sender
// whose source network contains the datagram's origin.
type Forwarder struct {
	*Receiver
	log    *logrus.Logger
	routes []sourceRoute
}

func newForwarder(log *logrus.Logger, events chan<- event, stop <-chan struct{}, endpoint netip.AddrPort) (*Forwarder, error) {
	rcv, err := newReceiver(events, stop, endpoint)
	if err != nil {
		return nil, err
	}
	f := &Forwarder{Receiver: rcv, log: log}
	rcv.handler = f
	return f, nil
}

// add appends a route. Routes are evaluated in insertion order; duplicates
// produce duplicate forwards.
func (f *Forwarder) add(network config.Network, sink datagramSink) {
	f.routes = append(f.routes, sourceRoute{network: network, sink: sink})
}

// handlePacket fans the datagram out to every matching route. A datagram
// whose origin matches no route is discarded.
func (f *Forwarder) handlePacket(src netip.AddrPort, data []byte) {
	origin := src.Addr()
	forwarded := 0
	for _, route := range f.routes {
		if route.network.Contains(origin) {
			route.sink.send(data, f.endpoint)
			forwarded++
		}
	}

	if f.log.IsLevelEnabled(logrus.DebugLevel) {
		if forwarded > 0 {
			f.log.Debugf("datagram of %d bytes from %s queued for forwarding %d times", len(data), src, forwarded)
		} else {
			f.log.Debugf("datagram of %d bytes from %s discarded", len(data), src)
		}
		if f.endpoint.Port() == mdnsPort {
			f.log.Debugf("%s: %s", f.endpoint, dnsSummary(data))
		}
	}
}

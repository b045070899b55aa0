package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
)

// maxDatagramSize is the largest possible IPv4 UDP payload:
// 65,535 minus the IP and UDP headers.
const maxDatagramSize = 65535 - 20 - 8

// packetHandler consumes datagrams received on a multicast endpoint.
type packetHandler interface {
	handlePacket(src netip.AddrPort, data []byte)
}

// Receiver owns the inbound socket of one multicast endpoint. It binds to
// 0.0.0.0 on the endpoint's port with address reuse enabled and joins the
// group per interface.
type Receiver struct {
	events   chan<- event
	stop     <-chan struct{}
	conn     net.PacketConn
	pc       *ipv4.PacketConn
	endpoint netip.AddrPort
	handler  packetHandler
	started  bool
}

func newReceiver(events chan<- event, stop <-chan struct{}, endpoint netip.AddrPort) (*Receiver, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", endpoint.Port()))
	if err != nil {
		return nil, fmt.Errorf("receiver for %s: %w", endpoint, err)
	}
	return &Receiver{
		events:   events,
		stop:     stop,
		conn:     conn,
		pc:       ipv4.NewPacketConn(conn),
		endpoint: endpoint,
	}, nil
}

// Endpoint returns the multicast endpoint the receiver serves.
func (r *Receiver) Endpoint() netip.AddrPort {
	return r.endpoint
}

// joinOnInterface adds a group membership for the endpoint's address on the
// given interface. Memberships per socket cap at IP_MAX_MEMBERSHIPS; going
// over surfaces as the OS error.
func (r *Receiver) joinOnInterface(ifi *net.Interface, addr netip.Addr) error {
	group := &net.UDPAddr{IP: r.endpoint.Addr().AsSlice()}
	if err := r.pc.JoinGroup(ifi, group); err != nil {
		return fmt.Errorf("joining %s on %s: %w", r.endpoint, addr, err)
	}
	return nil
}

// start launches the receive loop. It must be called at most once per
// Receiver.
func (r *Receiver) start() {
	if r.started {
		return
	}
	r.started = true
	go r.readLoop()
}

func (r *Receiver) readLoop() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, _, src, err := r.pc.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.post(ioErrorEvent{err: fmt.Errorf("receive from %s failed: %w", r.endpoint, err)})
			return
		}
		if n == 0 {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		udp := src.(*net.UDPAddr)
		ap := udp.AddrPort()
		r.post(packetEvent{
			handler: r.handler,
			src:     netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()),
			data:    data,
		})
	}
}

func (r *Receiver) post(ev event) {
	select {
	case r.events <- ev:
	case <-r.stop:
	}
}

func (r *Receiver) close() {
	r.conn.Close()
}

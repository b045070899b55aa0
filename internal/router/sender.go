package router

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// queueItem is one datagram waiting on a sender's FIFO, together with the
// multicast endpoint it is bound for.
type queueItem struct {
	data     []byte
	endpoint netip.AddrPort
}

// Sender owns the outbound socket of one interface address. Datagrams are
// queued in order and written one at a time: while the queue is non-empty
// exactly one write is in flight.
type Sender struct {
	log    *logrus.Logger
	events chan<- event
	stop   <-chan struct{}
	conn   net.PacketConn
	pc     *ipv4.PacketConn
	addr   netip.Addr
	queue  []queueItem
	work   chan queueItem
}

// NewSender opens an IPv4 UDP socket for the outbound interface with the
// given address. Multicast loopback is disabled; the multicast TTL stays at
// the OS default, as this is a link-local forwarder.
func NewSender(log *logrus.Logger, events chan<- event, stop <-chan struct{}, ifi *net.Interface, addr netip.Addr) (*Sender, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("sender on %s: %w", addr, err)
	}

	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastLoopback(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sender on %s: disabling multicast loopback: %w", addr, err)
	}
	if err := pc.SetMulticastInterface(ifi); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sender on %s: setting outbound interface: %w", addr, err)
	}

	s := &Sender{
		log:    log,
		events: events,
		stop:   stop,
		conn:   conn,
		pc:     pc,
		addr:   addr,
		work:   make(chan queueItem, 1),
	}
	go s.writeLoop()
	return s, nil
}

// Addr returns the outbound interface address the sender is bound to.
func (s *Sender) Addr() netip.Addr {
	return s.addr
}

// send appends a datagram to the FIFO. When the queue was empty the write is
// dispatched immediately; otherwise the completion of the in-flight write
// picks it up.
func (s *Sender) send(data []byte, endpoint netip.AddrPort) {
	item := queueItem{data: data, endpoint: endpoint}
	s.queue = append(s.queue, item)
	if len(s.queue) == 1 {
		s.work <- item
	}
}

// finishSend consumes the completion of the in-flight write and dispatches
// the next queued datagram, if any. Write failures are fatal for the event
// loop.
func (s *Sender) finishSend(n int, err error) error {
	if err != nil {
		return fmt.Errorf("send to %s failed: %w", s.addr, err)
	}
	item := s.queue[0]
	if n != len(item.data) {
		s.log.Warnf("datagram truncated: only sent %d out of %d bytes", n, len(item.data))
	}
	s.queue = s.queue[1:]
	if len(s.queue) > 0 {
		s.work <- s.queue[0]
	}
	return nil
}

// pending returns the number of queued datagrams, the in-flight one
// included.
func (s *Sender) pending() int {
	return len(s.queue)
}

func (s *Sender) writeLoop() {
	for {
		select {
		case item := <-s.work:
			n, err := s.pc.WriteTo(item.data, nil, net.UDPAddrFromAddrPort(item.endpoint))
			select {
			case s.events <- sendDoneEvent{snd: s, n: n, err: err}:
			case <-s.stop:
				return
			}
		case <-s.stop:
			return
		}
	}
}

func (s *Sender) close() {
	s.conn.Close()
}

package router

import "net/netip"

// All state of the forwarding plane is mutated from the single goroutine
// running Router.Run. Receiver read goroutines and sender write goroutines
// communicate with it exclusively through these events.
type event interface {
	isEvent()
}

// packetEvent carries one received datagram to its packet handler.
type packetEvent struct {
	handler packetHandler
	src     netip.AddrPort
	data    []byte
}

// sendDoneEvent reports the completion of a sender's in-flight write.
type sendDoneEvent struct {
	snd *Sender
	n   int
	err error
}

// ioErrorEvent reports a failed receive; it aborts the event loop.
type ioErrorEvent struct {
	err error
}

func (packetEvent) isEvent()   {}
func (sendDoneEvent) isEvent() {}
func (ioErrorEvent) isEvent()  {}

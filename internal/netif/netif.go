// Package netif enumerates the IPv4 addresses of local network interfaces
// and probes interface readiness.
package netif

import (
	"fmt"
	"math/bits"
	"net"
	"net/netip"
	"sort"

	"mcv4fwdd/internal/config"
)

// Addr is one IPv4 address of a named interface. Network retains the
// interface's own address; its prefix length is derived from the netmask.
type Addr struct {
	Iface   *net.Interface
	Network config.Network
}

// Name returns the interface name.
func (a Addr) Name() string {
	return a.Iface.Name
}

// IP returns the interface address itself, host bits included.
func (a Addr) IP() netip.Addr {
	return a.Network.Addr()
}

// AddrMap lists every IPv4 interface address, ordered by interface name so
// that all entries of one interface are contiguous.
type AddrMap []Addr

// Enumerate queries the OS for all interface addresses and keeps the IPv4
// ones.
func Enumerate() (AddrMap, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to query network interfaces: %w", err)
	}

	var m AddrMap
	for i := range ifaces {
		ifi := &ifaces[i]
		addrs, err := ifi.Addrs()
		if err != nil {
			return nil, fmt.Errorf("failed to query addresses of %s: %w", ifi.Name, err)
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			nw, err := config.NewNetwork(netip.AddrFrom4([4]byte(ip4)), maskBits(ipnet.Mask), false)
			if err != nil {
				return nil, fmt.Errorf("interface %s: %w", ifi.Name, err)
			}
			m = append(m, Addr{Iface: ifi, Network: nw})
		}
	}

	sort.SliceStable(m, func(i, j int) bool { return m[i].Name() < m[j].Name() })
	return m, nil
}

// Lookup returns the contiguous run of addresses for the named interface, in
// map order. The result is empty when the interface has no IPv4 address.
func (m AddrMap) Lookup(name string) []Addr {
	i := sort.Search(len(m), func(i int) bool { return m[i].Name() >= name })
	j := i
	for j < len(m) && m[j].Name() == name {
		j++
	}
	return m[i:j]
}

// maskBits counts the set bits of a netmask, trimming a 16-byte mask to its
// IPv4 tail first.
func maskBits(mask net.IPMask) int {
	if len(mask) == 16 {
		mask = mask[12:]
	}
	n := 0
	for _, b := range mask {
		n += bits.OnesCount8(b)
	}
	return n
}

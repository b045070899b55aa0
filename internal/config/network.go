package config

import (
	"fmt"
	"net/netip"

	"github.com/goccy/go-yaml"
)

// Network is an immutable IPv4 network: an address plus a prefix length.
// Depending on how it was constructed it either keeps the host bits of the
// address (to remember an interface's own address) or is canonicalized to the
// network address.
type Network struct {
	addr netip.Addr
	bits uint8
}

// NewNetwork builds a Network from an IPv4 address and a prefix length in
// 0..32. With applyMask the low host bits of the address are cleared;
// without it the original address is retained and can be read back later
// through Addr.
func NewNetwork(addr netip.Addr, bits int, applyMask bool) (Network, error) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return Network{}, fmt.Errorf("not an IPv4 address: %s", addr)
	}
	if bits < 0 || bits > 32 {
		return Network{}, fmt.Errorf("prefix length %d out of range", bits)
	}
	n := Network{addr: addr, bits: uint8(bits)}
	if applyMask {
		n.addr = n.maskedAddr()
	}
	return n, nil
}

// ParseNetwork parses CIDR notation ("10.0.1.0/24") into a canonicalized
// Network.
func ParseNetwork(s string) (Network, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return Network{}, fmt.Errorf("invalid network %q: %w", s, err)
	}
	return NewNetwork(p.Addr(), p.Bits(), true)
}

// Addr returns the address the Network was constructed with, host bits
// included when the mask was not applied.
func (n Network) Addr() netip.Addr {
	return n.addr
}

// Bits returns the prefix length.
func (n Network) Bits() int {
	return int(n.bits)
}

// IsValid reports whether the Network holds an address at all; the zero
// Network does not.
func (n Network) IsValid() bool {
	return n.addr.IsValid()
}

// Masked returns the canonicalized network, host bits cleared.
func (n Network) Masked() Network {
	return Network{addr: n.maskedAddr(), bits: n.bits}
}

// Contains reports whether ip falls inside the network: the high prefix bits
// of ip equal those of the network address.
func (n Network) Contains(ip netip.Addr) bool {
	ip = ip.Unmap()
	if !ip.Is4() {
		return false
	}
	return mask(ip, n.bits) == n.maskedAddr()
}

// Less orders Networks by their masked address.
func (n Network) Less(other Network) bool {
	return n.maskedAddr().Less(other.maskedAddr())
}

func (n Network) String() string {
	return fmt.Sprintf("%s/%d", n.addr, n.bits)
}

func (n Network) maskedAddr() netip.Addr {
	return mask(n.addr, n.bits)
}

func mask(addr netip.Addr, bits uint8) netip.Addr {
	a := addr.As4()
	v := uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
	v &= ^uint32(0) << (32 - bits)
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// UnmarshalYAML decodes a Network from a CIDR scalar.
func (n *Network) UnmarshalYAML(b []byte) error {
	var s string
	if err := yaml.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseNetwork(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MarshalYAML encodes the Network back to CIDR notation.
func (n Network) MarshalYAML() ([]byte, error) {
	return []byte(n.String()), nil
}

package config

import (
	"net/netip"
	"testing"
)

func TestNewNetwork(t *testing.T) {
	addr := netip.MustParseAddr("10.0.1.5")

	t.Run("Masked construction clears host bits", func(t *testing.T) {
		n, err := NewNetwork(addr, 24, true)
		if err != nil {
			t.Fatalf("NewNetwork failed: %v", err)
		}
		if got := n.Addr().String(); got != "10.0.1.0" {
			t.Errorf("Expected 10.0.1.0, got %s", got)
		}
	})

	t.Run("Unmasked construction retains host address", func(t *testing.T) {
		n, err := NewNetwork(addr, 24, false)
		if err != nil {
			t.Fatalf("NewNetwork failed: %v", err)
		}
		if got := n.Addr(); got != addr {
			t.Errorf("Expected %s, got %s", addr, got)
		}
		if got := n.Masked().Addr().String(); got != "10.0.1.0" {
			t.Errorf("Expected masked 10.0.1.0, got %s", got)
		}
	})

	t.Run("Prefix length out of range rejected", func(t *testing.T) {
		if _, err := NewNetwork(addr, 33, true); err == nil {
			t.Error("Expected error for prefix 33")
		}
		if _, err := NewNetwork(addr, -1, true); err == nil {
			t.Error("Expected error for negative prefix")
		}
	})

	t.Run("IPv6 address rejected", func(t *testing.T) {
		if _, err := NewNetwork(netip.MustParseAddr("fe80::1"), 64, true); err == nil {
			t.Error("Expected error for IPv6 address")
		}
	})

	t.Run("Network contains its own address for every prefix", func(t *testing.T) {
		for bits := 0; bits <= 32; bits++ {
			n, err := NewNetwork(addr, bits, true)
			if err != nil {
				t.Fatalf("NewNetwork(%d) failed: %v", bits, err)
			}
			if !n.Contains(addr) {
				t.Errorf("Network %s does not contain %s", n, addr)
			}
		}
	})
}

func TestNetworkContains(t *testing.T) {
	mustNetwork := func(s string) Network {
		n, err := ParseNetwork(s)
		if err != nil {
			t.Fatalf("ParseNetwork(%s) failed: %v", s, err)
		}
		return n
	}

	t.Run("Inside and outside", func(t *testing.T) {
		n := mustNetwork("10.0.1.0/24")
		if !n.Contains(netip.MustParseAddr("10.0.1.42")) {
			t.Error("Expected 10.0.1.42 inside 10.0.1.0/24")
		}
		if n.Contains(netip.MustParseAddr("172.16.0.4")) {
			t.Error("Expected 172.16.0.4 outside 10.0.1.0/24")
		}
	})

	t.Run("Half subnet", func(t *testing.T) {
		n := mustNetwork("10.0.1.0/25")
		if !n.Contains(netip.MustParseAddr("10.0.1.10")) {
			t.Error("Expected 10.0.1.10 inside 10.0.1.0/25")
		}
		if n.Contains(netip.MustParseAddr("10.0.1.200")) {
			t.Error("Expected 10.0.1.200 outside 10.0.1.0/25")
		}
	})

	t.Run("Prefix 0 contains everything", func(t *testing.T) {
		n := mustNetwork("0.0.0.0/0")
		for _, s := range []string{"0.0.0.0", "10.0.1.42", "255.255.255.255"} {
			if !n.Contains(netip.MustParseAddr(s)) {
				t.Errorf("Expected %s inside 0.0.0.0/0", s)
			}
		}
	})

	t.Run("Prefix 32 contains exactly its address", func(t *testing.T) {
		n := mustNetwork("10.0.1.5/32")
		if !n.Contains(netip.MustParseAddr("10.0.1.5")) {
			t.Error("Expected host route to contain its address")
		}
		if n.Contains(netip.MustParseAddr("10.0.1.6")) {
			t.Error("Expected 10.0.1.6 outside host route")
		}
	})

	t.Run("IPv6 never contained", func(t *testing.T) {
		n := mustNetwork("0.0.0.0/0")
		if n.Contains(netip.MustParseAddr("::1")) {
			t.Error("Expected IPv6 address outside any IPv4 network")
		}
	})
}

func TestNetworkOrder(t *testing.T) {
	a, _ := NewNetwork(netip.MustParseAddr("10.0.1.7"), 24, false)
	b, _ := NewNetwork(netip.MustParseAddr("10.0.2.1"), 24, false)
	if !a.Less(b) {
		t.Error("Expected 10.0.1.0/24 < 10.0.2.0/24")
	}
	if b.Less(a) {
		t.Error("Expected 10.0.2.0/24 not < 10.0.1.0/24")
	}
}

func TestParseNetwork(t *testing.T) {
	t.Run("Canonicalizes", func(t *testing.T) {
		n, err := ParseNetwork("192.168.1.7/24")
		if err != nil {
			t.Fatalf("ParseNetwork failed: %v", err)
		}
		if got := n.String(); got != "192.168.1.0/24" {
			t.Errorf("Expected 192.168.1.0/24, got %s", got)
		}
	})

	t.Run("Rejects garbage", func(t *testing.T) {
		for _, s := range []string{"", "10.0.1.0", "10.0.1.0/33", "fe80::/64", "x/24"} {
			if _, err := ParseNetwork(s); err == nil {
				t.Errorf("Expected error for %q", s)
			}
		}
	})
}

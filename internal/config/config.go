package config

import (
	"fmt"
	"net/netip"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"golang.org/x/sys/unix"
)

// wellKnownServices maps service aliases to their fixed multicast endpoint.
var wellKnownServices = map[string]struct {
	group netip.Addr
	port  uint16
}{
	"mdns": {netip.AddrFrom4([4]byte{224, 0, 0, 251}), 5353},
	"ssdp": {netip.AddrFrom4([4]byte{239, 255, 255, 250}), 1900},
}

// Configuration is the full daemon configuration: one entry per multicast
// service to forward.
type Configuration struct {
	LogLevel string                 `yaml:"log_level" validate:"omitempty,oneof=trace debug info warning error"`
	Services []ServiceConfiguration `yaml:"services" validate:"required,min=1,dive"`
}

// ServiceConfiguration names a multicast endpoint, either through a
// well-known service alias or an explicit group address and port, and lists
// the forwarding rules for it.
type ServiceConfiguration struct {
	Service string           `yaml:"service"`
	Group   string           `yaml:"group" validate:"omitempty,ip4_addr"`
	Port    uint16           `yaml:"port"`
	Rules   []ForwardingRule `yaml:"rules" validate:"required,min=1,dive"`

	groupAddr netip.Addr
}

// ForwardingRule relays datagrams arriving on the From interface to the To
// interface. When SourceNetworks is empty, the networks of the From interface
// itself are accepted.
type ForwardingRule struct {
	From           string    `yaml:"from" validate:"required"`
	To             string    `yaml:"to" validate:"required"`
	SourceNetworks []Network `yaml:"source_networks"`
}

// Load reads, parses and validates the configuration file at path.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for i := range cfg.Services {
		if err := cfg.Services[i].resolve(); err != nil {
			return nil, fmt.Errorf("%s: service %d: %w", path, i, err)
		}
	}
	return &cfg, nil
}

// Interfaces returns the sorted union of every interface name referenced by
// the configuration.
func (c *Configuration) Interfaces() []string {
	seen := make(map[string]bool)
	var names []string
	for _, svc := range c.Services {
		for _, rule := range svc.Rules {
			for _, name := range []string{rule.From, rule.To} {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	sort.Strings(names)
	return names
}

// Endpoint returns the resolved multicast endpoint (group, port).
func (s *ServiceConfiguration) Endpoint() netip.AddrPort {
	return netip.AddrPortFrom(s.groupAddr, s.Port)
}

func (s *ServiceConfiguration) resolve() error {
	if s.Service != "" {
		if s.Group != "" || s.Port != 0 {
			return fmt.Errorf("service %q does not take an explicit group or port", s.Service)
		}
		ws, ok := wellKnownServices[s.Service]
		if !ok {
			return fmt.Errorf("unknown service %q", s.Service)
		}
		s.groupAddr = ws.group
		s.Port = ws.port
	} else {
		if s.Group == "" {
			return fmt.Errorf("either a service name or a group address is required")
		}
		addr, err := netip.ParseAddr(s.Group)
		if err != nil {
			return fmt.Errorf("invalid group address %q: %w", s.Group, err)
		}
		addr = addr.Unmap()
		if !addr.Is4() || !addr.IsMulticast() {
			return fmt.Errorf("group address %q is not IPv4 multicast", s.Group)
		}
		if s.Port == 0 {
			return fmt.Errorf("port cannot be zero")
		}
		s.groupAddr = addr
	}

	for _, rule := range s.Rules {
		for _, name := range []string{rule.From, rule.To} {
			if len(name) >= unix.IFNAMSIZ {
				return fmt.Errorf("interface name %q too long", name)
			}
		}
	}
	return nil
}

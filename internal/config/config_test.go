package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcv4fwdd.conf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
log_level: debug
services:
  - service: mdns
    rules:
      - from: eth0
        to: eth1
  - group: 239.255.255.250
    port: 1900
    rules:
      - from: eth2
        to: eth1
        source_networks:
          - 10.0.1.0/25
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.LogLevel)
	}
	if len(cfg.Services) != 2 {
		t.Fatalf("Expected 2 services, got %d", len(cfg.Services))
	}

	mdns := cfg.Services[0]
	if got := mdns.Endpoint().String(); got != "224.0.0.251:5353" {
		t.Errorf("Expected mdns endpoint 224.0.0.251:5353, got %s", got)
	}

	ssdp := cfg.Services[1]
	if got := ssdp.Endpoint().String(); got != "239.255.255.250:1900" {
		t.Errorf("Expected ssdp endpoint 239.255.255.250:1900, got %s", got)
	}
	if len(ssdp.Rules[0].SourceNetworks) != 1 {
		t.Fatalf("Expected 1 source network, got %d", len(ssdp.Rules[0].SourceNetworks))
	}
	if got := ssdp.Rules[0].SourceNetworks[0].String(); got != "10.0.1.0/25" {
		t.Errorf("Expected 10.0.1.0/25, got %s", got)
	}

	if got := cfg.Interfaces(); !reflect.DeepEqual(got, []string{"eth0", "eth1", "eth2"}) {
		t.Errorf("Expected sorted interface union [eth0 eth1 eth2], got %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "Unknown service",
			content: `
services:
  - service: nosuchthing
    rules:
      - {from: eth0, to: eth1}
`,
			want: "unknown service",
		},
		{
			name: "Service with explicit port",
			content: `
services:
  - service: mdns
    port: 5353
    rules:
      - {from: eth0, to: eth1}
`,
			want: "does not take",
		},
		{
			name: "Zero port",
			content: `
services:
  - group: 239.1.2.3
    rules:
      - {from: eth0, to: eth1}
`,
			want: "port cannot be zero",
		},
		{
			name: "Group not multicast",
			content: `
services:
  - group: 10.0.0.1
    port: 9875
    rules:
      - {from: eth0, to: eth1}
`,
			want: "not IPv4 multicast",
		},
		{
			name: "Neither service nor group",
			content: `
services:
  - port: 9875
    rules:
      - {from: eth0, to: eth1}
`,
			want: "group address is required",
		},
		{
			name: "Interface name too long",
			content: `
services:
  - service: mdns
    rules:
      - {from: averylonginterfacename0, to: eth1}
`,
			want: "too long",
		},
		{
			name: "Missing rules",
			content: `
services:
  - service: mdns
`,
			want: "Rules",
		},
		{
			name: "Bad source network",
			content: `
services:
  - service: mdns
    rules:
      - from: eth0
        to: eth1
        source_networks: [banana]
`,
			want: "invalid network",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error containing %q, got: %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.conf")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

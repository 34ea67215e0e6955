package inputnode

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"net/netip"
	"os"
)

// Config carries the resolved startup parameters of a node. The YAML keys
// match the config files used across the automation network, so the same
// file drives every node implementation.
type Config struct {
	Area                string `yaml:"area"`
	FlowName            string `yaml:"flow_name"`
	TargetIP            string `yaml:"target_ip"`
	TargetPort          uint16 `yaml:"target_port"`
	OutboundPortData    uint16 `yaml:"outbound_port_data"` // 0 picks an ephemeral port
	OutboundPortAcks    uint16 `yaml:"outbound_port_acks"` // 0 disables acks
	InboundPort         uint16 `yaml:"inbound_port"`
	Interval            uint64 `yaml:"interval"`              // milliseconds, 0 means DefaultInterval
	InboundPollInterval uint64 `yaml:"inbound_poll_interval"` // milliseconds, 0 means DefaultInboundPollInterval
}

// LoadConfig reads a YAML config file. Fields absent from the file stay at
// their zero values; the caller decides how to fill them.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.InboundPollInterval == 0 {
		c.InboundPollInterval = DefaultInboundPollInterval
	}
	return c
}

// Validate reports the first fatal configuration problem. A node must not
// start without a usable control and data surface.
func (c Config) Validate() error {
	if c.Area == "" {
		return fmt.Errorf("config: area is required")
	}
	if c.FlowName == "" {
		return fmt.Errorf("config: flow_name is required")
	}
	if _, err := c.Target(); err != nil {
		return err
	}
	if c.InboundPort == 0 {
		return fmt.Errorf("config: inbound_port is required")
	}
	return nil
}

// Target parses the initial target address the emitter starts with.
func (c Config) Target() (netip.AddrPort, error) {
	ip, err := netip.ParseAddr(c.TargetIP)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("config: target_ip %q: %w", c.TargetIP, err)
	}
	if c.TargetPort == 0 {
		return netip.AddrPort{}, fmt.Errorf("config: target_port is required")
	}
	return netip.AddrPortFrom(ip, c.TargetPort), nil
}

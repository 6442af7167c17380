//go:build linux

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"clockcode-go/drivers/ds1307"
)

// Config selects the bus and chip. Both tools on the host side share this
// shape so one rtc.yml serves rtc-tool and rtc-sync.
type Config struct {
	Bus        string `yaml:"bus"`      // periph bus name, "" = first available
	Addr       uint16 `yaml:"addr"`     // 7-bit chip address
	Mode12Hour bool   `yaml:"mode_12h"` // hour format used for writes
}

func defaultConfig() *Config {
	return &Config{Addr: ds1307.Address}
}

func loadConfig(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := defaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if c.Addr == 0 {
		c.Addr = ds1307.Address
	}
	return c, nil
}

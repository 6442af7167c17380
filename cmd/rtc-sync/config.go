//go:build linux

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"clockcode-go/drivers/ds1307"
)

const (
	dirRTCToSys = "rtc-to-sys"
	dirSysToRTC = "sys-to-rtc"
)

type Config struct {
	Bus        string `yaml:"bus"`
	Addr       uint16 `yaml:"addr"`
	Mode12Hour bool   `yaml:"mode_12h"`
	Direction  string `yaml:"direction"`
	Interval   string `yaml:"interval"`   // poll period, default 1m
	StepLimit  string `yaml:"step_limit"` // step vs slew threshold, default 500ms

	interval  time.Duration
	stepLimit time.Duration
}

func defaultConfig() *Config {
	return &Config{
		Addr:      ds1307.Address,
		Direction: dirRTCToSys,
		interval:  time.Minute,
		stepLimit: 500 * time.Millisecond,
	}
}

func loadConfig(path string) (*Config, error) {
	c := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if c.Addr == 0 {
		c.Addr = ds1307.Address
	}
	if c.Direction == "" {
		c.Direction = dirRTCToSys
	}
	if c.Interval != "" {
		d, err := time.ParseDuration(c.Interval)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("bad interval %q", c.Interval)
		}
		c.interval = d
	}
	if c.StepLimit != "" {
		d, err := time.ParseDuration(c.StepLimit)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("bad step_limit %q", c.StepLimit)
		}
		c.stepLimit = d
	}
	return c, nil
}

//go:build linux

// Package periphshim adapts a periph.io I2C bus to the tinygo driver Tx
// shape so the same chip drivers run against /dev/i2c-* on a Linux host.
package periphshim

import (
	"fmt"

	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"

	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = Bus{}

// Bus wraps an open periph bus. The zero value is not usable; call Open.
type Bus struct {
	bus i2c.BusCloser
}

// Open initializes the periph registry and opens a bus by name. An empty
// name selects the first available bus.
func Open(name string) (Bus, error) {
	if _, err := driverreg.Init(); err != nil {
		return Bus{}, fmt.Errorf("periphshim: init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return Bus{}, fmt.Errorf("periphshim: open %q: %w", name, err)
	}
	return Bus{bus: bus}, nil
}

// Tx performs a write followed by a read in a single transaction when both
// buffers are set, matching what the chip drivers expect.
func (b Bus) Tx(addr uint16, w, r []byte) error {
	d := i2c.Dev{Addr: addr, Bus: b.bus}
	return d.Tx(w, r)
}

// Close releases the underlying bus.
func (b Bus) Close() error {
	if b.bus == nil {
		return nil
	}
	return b.bus.Close()
}

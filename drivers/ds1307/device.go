// Package ds1307 provides a driver for the DS1307 battery-backed real-time
// clock. It converts between calendar time and the chip's BCD register image
// and issues the transaction sequences the chip requires, most notably the
// two-phase time write that halts the oscillator while the registers change
// and restarts it together with the seconds field.
//
// The chip stores a two-digit year; the driver rebases it against 2000 and
// supports dates in 2000..2099 only.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
//
// Datasheet: https://datasheets.maximintegrated.com/en/ds/DS1307.pdf
package ds1307

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Errors returned by the driver. Bus transport errors pass through as-is and
// additionally drop the presence cache to false.
var (
	// ErrShortRead means the chip acknowledged its address but the
	// follow-up read transferred fewer bytes than requested. Presence is
	// left untouched.
	ErrShortRead = errors.New("ds1307: short read")
	// ErrClockHalted means the CH bit was set during a read: the
	// oscillator is stopped and the decoded fields are stale. Callers must
	// not use the returned time.
	ErrClockHalted = errors.New("ds1307: clock halted")
)

// Config holds optional device settings.
type Config struct {
	// Address defaults to 0x68 if zero.
	Address uint16
	// Mode12Hour selects the hour format used when encoding writes. The
	// flag is also refreshed from the chip on every ReadTime, so it only
	// matters for a write issued before the first successful read.
	Mode12Hour bool
}

// Device wraps an I2C connection to a DS1307. It owns the hour-format and
// presence state the register codec depends on; callers needing several
// chips or a test double hold separate Devices. Access is single-owner:
// the driver does no locking of its own.
type Device struct {
	bus  drivers.I2C
	addr uint16

	present bool
	mode12  bool
	pm      bool

	// Fixed buffers to avoid per-call heap allocations.
	w [1 + timeRegCount]byte
	r [1 + timeRegCount]byte
}

// New creates a Device on the given bus. The bus must already be configured.
// No chip communication happens until the first operation.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:  bus,
		addr: Address,
	}
}

// Configure applies optional settings.
func (d *Device) Configure(cfg Config) {
	if cfg.Address != 0 {
		d.addr = cfg.Address
	}
	d.mode12 = cfg.Mode12Hour
}

// Present reports the outcome of the most recent addressing attempt. It is a
// cache, not a live probe: false after any NAKed transmission, true after any
// acknowledged one.
func (d *Device) Present() bool { return d.present }

// Mode12Hour reports the hour format the driver currently believes the chip
// is in.
func (d *Device) Mode12Hour() bool { return d.mode12 }

// PM reports the AM/PM flag from the most recently decoded hours register.
// Only meaningful while Mode12Hour is true.
func (d *Device) PM() bool { return d.pm }

// SetMode12Hour changes the hour format used for subsequent writes. The chip
// itself switches when the next WriteTime rewrites the hours register.
func (d *Device) SetMode12Hour(on bool) { d.mode12 = on }

// RefreshHourMode re-reads the hours register and syncs the tracked format
// flags from the chip without touching the rest of the time registers.
func (d *Device) RefreshHourMode() error {
	reg, err := d.ReadRegister(regHours)
	if err != nil {
		return err
	}
	_, d.mode12, d.pm = decodeHours(reg)
	return nil
}

// Running reports whether the oscillator is running, checked live against the
// CH bit of the seconds register. A failed bus read reports not running: the
// sentinel read value decodes as CH-set.
func (d *Device) Running() bool {
	reg, err := d.ReadRegister(regSeconds)
	if err != nil {
		reg = readErrByte
	}
	return reg&chBit == 0
}

// ReadRegister reads a single register: a pointer write followed by a
// one-byte read, as two independent transactions. On failure the returned
// value is 0xFF.
func (d *Device) ReadRegister(reg uint8) (uint8, error) {
	d.w[0] = reg
	if err := d.write(d.w[:1]); err != nil {
		return readErrByte, err
	}
	if err := d.bus.Tx(d.addr, nil, d.r[:1]); err != nil {
		return readErrByte, ErrShortRead
	}
	return d.r[0], nil
}

// WriteRegister writes a single register in one transaction.
func (d *Device) WriteRegister(reg, value uint8) error {
	d.w[0] = reg
	d.w[1] = value
	return d.write(d.w[:2])
}

// write issues one write transaction and updates the presence cache from its
// outcome. Read phases deliberately bypass this: a short read after a
// successful address still counts as present.
func (d *Device) write(buf []byte) error {
	if err := d.bus.Tx(d.addr, buf, nil); err != nil {
		d.present = false
		return err
	}
	d.present = true
	return nil
}

package ds1307

// SqwRate selects the square-wave output frequency (RS1:RS0).
type SqwRate uint8

const (
	Sqw1Hz     SqwRate = 0x0
	Sqw4096Hz  SqwRate = 0x1
	Sqw8192Hz  SqwRate = 0x2
	Sqw32768Hz SqwRate = 0x3
)

// Hz returns the nominal output frequency for a rate select value.
func (r SqwRate) Hz() uint32 {
	switch r & ctrlRateMask {
	case Sqw4096Hz:
		return 4096
	case Sqw8192Hz:
		return 8192
	case Sqw32768Hz:
		return 32768
	default:
		return 1
	}
}

// ClockOut describes the SQW/OUT pin configuration held in the control
// register. It is independent of the time path; the two share only the
// single-register primitives.
type ClockOut struct {
	// Enable drives the pin with the square wave at Rate.
	Enable bool
	// Level is the static pin level while the square wave is disabled.
	Level bool
	// Rate selects the output frequency.
	Rate SqwRate
}

// SetClockOut packs cfg into the control register and writes it in one
// transaction.
func (d *Device) SetClockOut(cfg ClockOut) error {
	reg := uint8(cfg.Rate) & ctrlRateMask
	if cfg.Enable {
		reg |= ctrlSqweBit
	}
	if cfg.Level {
		reg |= ctrlOutBit
	}
	return d.WriteRegister(regControl, reg)
}

// ReadClockOut reads the control register back and unpacks it.
func (d *Device) ReadClockOut() (ClockOut, error) {
	reg, err := d.ReadRegister(regControl)
	if err != nil {
		return ClockOut{}, err
	}
	return ClockOut{
		Enable: reg&ctrlSqweBit != 0,
		Level:  reg&ctrlOutBit != 0,
		Rate:   SqwRate(reg & ctrlRateMask),
	}, nil
}

package ds1307

// Snapshot collects the raw register image plus the derived state flags,
// mainly for diagnostics and register dumps. Zero values remain where
// individual reads fail.
type Snapshot struct {
	Regs    [8]byte // time registers 0x00..0x06 plus control at 0x07
	Present bool
	Running bool
	Mode12  bool
	PM      bool
}

func (d *Device) Snapshot() Snapshot {
	var s Snapshot
	d.SnapshotInto(&s)
	return s
}

func (d *Device) SnapshotInto(out *Snapshot) {
	var s Snapshot
	if regs, err := d.DumpRegisters(); err == nil {
		s.Regs = regs
		s.Running = regs[regSeconds]&chBit == 0
		_, s.Mode12, s.PM = decodeHours(regs[regHours])
	}
	s.Present = d.present
	*out = s
}

// DumpRegisters reads the full eight-register image in one burst: the seven
// time registers followed by the control register.
func (d *Device) DumpRegisters() ([8]byte, error) {
	var regs [8]byte
	d.w[0] = regSeconds
	if err := d.write(d.w[:1]); err != nil {
		return regs, err
	}
	if err := d.bus.Tx(d.addr, nil, d.r[:]); err != nil {
		return regs, ErrShortRead
	}
	copy(regs[:], d.r[:])
	return regs, nil
}

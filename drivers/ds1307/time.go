package ds1307

import "time"

// Clock is a broken-down timestamp in the chip's field layout. Hour is always
// in 24-hour form here regardless of the register mode; Weekday runs 1..7
// with Sunday = 1; Year is the offset from 2000.
type Clock struct {
	Second  uint8 // 0..59
	Minute  uint8 // 0..59
	Hour    uint8 // 0..23
	Weekday uint8 // 1..7, Sunday = 1
	Day     uint8 // 1..31
	Month   uint8 // 1..12
	Year    uint8 // 0..99, years since 2000
}

// Time converts to a stdlib time in UTC.
func (c Clock) Time() time.Time {
	return time.Date(2000+int(c.Year), time.Month(c.Month), int(c.Day),
		int(c.Hour), int(c.Minute), int(c.Second), 0, time.UTC)
}

// ClockOf breaks a stdlib time into chip fields. The time is interpreted in
// UTC; years outside 2000..2099 are clamped to that range.
func ClockOf(t time.Time) Clock {
	t = t.UTC()
	year := t.Year() - 2000
	if year < 0 {
		year = 0
	}
	if year > 99 {
		year = 99
	}
	return Clock{
		Second:  uint8(t.Second()),
		Minute:  uint8(t.Minute()),
		Hour:    uint8(t.Hour()),
		Weekday: uint8(t.Weekday()) + 1,
		Day:     uint8(t.Day()),
		Month:   uint8(t.Month()),
		Year:    uint8(year),
	}
}

// ReadTime fills c from the chip: one pointer write to the seconds register,
// then a seven-byte burst. The CH bit is masked off before the seconds field
// is decoded; if it was set, c is still filled but ErrClockHalted is returned
// and the values must not be trusted. The hour-format flags are refreshed
// from the hours register as a side effect.
func (d *Device) ReadTime(c *Clock) error {
	d.w[0] = regSeconds
	if err := d.write(d.w[:1]); err != nil {
		return err
	}
	if err := d.bus.Tx(d.addr, nil, d.r[:timeRegCount]); err != nil {
		return ErrShortRead
	}

	sec := d.r[0]
	c.Second = bcdToDec(sec &^ chBit)
	c.Minute = bcdToDec(d.r[1])
	c.Hour, d.mode12, d.pm = decodeHours(d.r[2])
	c.Weekday = bcdToDec(d.r[3])
	c.Day = bcdToDec(d.r[4])
	c.Month = bcdToDec(d.r[5])
	c.Year = bcdToDec(d.r[6])

	if sec&chBit != 0 {
		return ErrClockHalted
	}
	return nil
}

// WriteTime writes c as two physically separate transactions. The first
// asserts CH through a zero-seconds placeholder and writes minutes..year in
// one burst, so the running registers never mix old and new fields. The
// second writes the true seconds with CH clear, restarting the oscillator.
//
// If the second transaction fails the chip is left halted with the new
// date fields and no seconds; that is reported as an ordinary error, not
// repaired here. The caller decides whether to retry.
func (d *Device) WriteTime(c Clock) error {
	d.w[0] = regSeconds
	d.w[1] = chBit // seconds placeholder, oscillator stopped
	d.w[2] = decToBcd(c.Minute)
	d.w[3] = encodeHours(c.Hour, d.mode12)
	d.w[4] = decToBcd(c.Weekday)
	d.w[5] = decToBcd(c.Day)
	d.w[6] = decToBcd(c.Month)
	d.w[7] = decToBcd(c.Year)
	if err := d.write(d.w[:1+timeRegCount]); err != nil {
		return err
	}

	d.w[0] = regSeconds
	d.w[1] = decToBcd(c.Second)
	return d.write(d.w[:2])
}

// Now reads the current time. A halted or unreachable chip returns the zero
// time and an error.
func (d *Device) Now() (time.Time, error) {
	var c Clock
	if err := d.ReadTime(&c); err != nil {
		return time.Time{}, err
	}
	return c.Time(), nil
}

// Set writes the given time to the chip.
func (d *Device) Set(t time.Time) error {
	return d.WriteTime(ClockOf(t))
}

package ds1307

// BCD packing: tens in the high nibble, units in the low nibble. Exact
// inverses over 0..99; neither validates its input.

func decToBcd(dec uint8) uint8 {
	return dec + 6*(dec/10)
}

func bcdToDec(bcd uint8) uint8 {
	return bcd - 6*(bcd>>4)
}

// decodeHours unpacks the hours register. The returned hour is always in
// 24-hour form. mode12 and pm report the flags baked into the register so the
// device can track the chip's current hour format.
//
// In 12-hour mode the stored field is 1..12 with 12 meaning midnight or noon
// depending on the PM flag. Out-of-range BCD nibbles decode via the same
// arithmetic as any other value; no validation is attempted.
func decodeHours(reg uint8) (hour uint8, mode12, pm bool) {
	if reg&hourMode12Bit == 0 {
		return bcdToDec(reg & hourMask24), false, false
	}
	hour = bcdToDec(reg & hourMask12)
	if hour == 12 {
		hour = 0 // 12 AM is midnight, 12 PM becomes noon below
	}
	pm = reg&hourPMBit != 0
	if pm {
		hour += 12
	}
	return hour, true, pm
}

// encodeHours packs a 24-hour value into the hours register. In 12-hour mode
// the PM flag is derived from the hour itself (hour >= 12) and hours 0 and 12
// both encode as BCD 12, distinguished by PM. decodeHours(encodeHours(h, m))
// reproduces h for every h in 0..23 and either mode.
func encodeHours(hour uint8, mode12 bool) uint8 {
	if !mode12 {
		return decToBcd(hour)
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	reg := decToBcd(h) | hourMode12Bit
	if hour >= 12 {
		reg |= hourPMBit
	}
	return reg
}

package ds1307

import "testing"

func TestBcdRoundTrip(t *testing.T) {
	for n := uint8(0); n < 100; n++ {
		if got := bcdToDec(decToBcd(n)); got != n {
			t.Fatalf("bcdToDec(decToBcd(%d)) = %d", n, got)
		}
	}
}

func TestBcdPacking(t *testing.T) {
	cases := []struct{ dec, bcd uint8 }{
		{0, 0x00}, {5, 0x05}, {9, 0x09}, {10, 0x10},
		{13, 0x13}, {27, 0x27}, {59, 0x59}, {99, 0x99},
	}
	for _, c := range cases {
		if got := decToBcd(c.dec); got != c.bcd {
			t.Errorf("decToBcd(%d) = %#02x, want %#02x", c.dec, got, c.bcd)
		}
		if got := bcdToDec(c.bcd); got != c.dec {
			t.Errorf("bcdToDec(%#02x) = %d, want %d", c.bcd, got, c.dec)
		}
	}
}

func TestHourRoundTrip(t *testing.T) {
	for _, mode12 := range []bool{false, true} {
		for h := uint8(0); h < 24; h++ {
			reg := encodeHours(h, mode12)
			got, gotMode, gotPM := decodeHours(reg)
			if got != h {
				t.Fatalf("mode12=%v: decode(encode(%d)) = %d (reg %#02x)", mode12, h, got, reg)
			}
			if gotMode != mode12 {
				t.Fatalf("hour %d: mode flag = %v, want %v", h, gotMode, mode12)
			}
			if mode12 && gotPM != (h >= 12) {
				t.Fatalf("hour %d: pm = %v, want %v", h, gotPM, h >= 12)
			}
		}
	}
}

// Midnight and noon both store BCD 12 in 12-hour mode, told apart by PM.
func TestHourMidnightNoon(t *testing.T) {
	if got := encodeHours(0, true); got != hourMode12Bit|0x12 {
		t.Errorf("encodeHours(0, 12h) = %#02x, want %#02x", got, hourMode12Bit|0x12)
	}
	if got := encodeHours(12, true); got != hourMode12Bit|hourPMBit|0x12 {
		t.Errorf("encodeHours(12, 12h) = %#02x, want %#02x", got, hourMode12Bit|hourPMBit|0x12)
	}
}

func TestHourEncoding(t *testing.T) {
	// 13:00 is plain BCD in 24-hour mode and 1 PM in 12-hour mode.
	if got := encodeHours(13, false); got != 0x13 {
		t.Errorf("encodeHours(13, 24h) = %#02x, want 0x13", got)
	}
	if got := encodeHours(13, true); got != 0x61 {
		t.Errorf("encodeHours(13, 12h) = %#02x, want 0x61", got)
	}
	h, mode12, pm := decodeHours(0x61)
	if h != 13 || !mode12 || !pm {
		t.Errorf("decodeHours(0x61) = %d mode12=%v pm=%v, want 13 true true", h, mode12, pm)
	}
}

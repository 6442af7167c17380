package timex

import (
	"testing"
	"time"
)

func TestFromUnix(t *testing.T) {
	got := FromUnix(1737982800)
	want := time.Date(2025, 1, 27, 13, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("FromUnix = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Fatalf("FromUnix location = %v, want UTC", got.Location())
	}
}

func TestUnixMsRoundTrip(t *testing.T) {
	tm := time.Date(2025, 3, 14, 9, 26, 30, 0, time.UTC)
	if got := UnixMs(tm); got != tm.UnixMilli() {
		t.Fatalf("UnixMs = %d, want %d", got, tm.UnixMilli())
	}
}

func TestPeriodFromHz(t *testing.T) {
	cases := []struct {
		hz   uint32
		want uint64
	}{
		{0, 1_000_000_000}, // coerced to 1 Hz
		{1, 1_000_000_000},
		{4096, 244140},
		{32768, 30517},
	}
	for _, c := range cases {
		if got := PeriodFromHz(c.hz); got != c.want {
			t.Errorf("PeriodFromHz(%d) = %d, want %d", c.hz, got, c.want)
		}
	}
}

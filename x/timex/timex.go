package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// UnixMs returns Unix milliseconds for an arbitrary time.
func UnixMs(t time.Time) int64 { return t.UnixMilli() }

// FromUnix converts whole Unix seconds to a UTC time.
func FromUnix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(1_000_000_000 / uint64(freqHz))
}

//go:build linux

// Package clockadj adjusts the system realtime clock. Every call needs
// CAP_SYS_TIME or root.
package clockadj

import (
	"time"

	"golang.org/x/sys/unix"
)

// Slew applies a gradual correction through adjtimex. The kernel takes the
// offset in microseconds, so corrections under 1us are dropped.
func Slew(offset time.Duration) error {
	us := offset.Microseconds()
	if us == 0 {
		return nil
	}
	tx := &unix.Timex{
		Modes:  unix.ADJ_OFFSET,
		Offset: us,
	}
	_, err := unix.Adjtimex(tx)
	return err
}

// Step sets the clock directly.
func Step(t time.Time) error {
	ts := unix.NsecToTimespec(t.UnixNano())
	return unix.ClockSettime(unix.CLOCK_REALTIME, &ts)
}

// SetFrequency sets the kernel frequency correction. The timex field is in
// scaled ppm, 65536 units per ppm.
func SetFrequency(ppm float64) error {
	scaled := int64(ppm * 65536)
	if scaled == 0 {
		return nil
	}
	tx := &unix.Timex{
		Modes: unix.ADJ_FREQUENCY,
		Freq:  scaled,
	}
	_, err := unix.Adjtimex(tx)
	return err
}

// GetFrequency reads the current frequency correction in ppm without
// modifying it.
func GetFrequency() (float64, error) {
	tx := &unix.Timex{}
	if _, err := unix.Adjtimex(tx); err != nil {
		return 0, err
	}
	return float64(tx.Freq) / 65536, nil
}

//go:build !linux

package clockadj

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("clockadj: unsupported platform")

func Slew(offset time.Duration) error { return errUnsupported }

func Step(t time.Time) error { return errUnsupported }

func SetFrequency(ppm float64) error { return errUnsupported }

func GetFrequency() (float64, error) { return 0, errUnsupported }

//go:build linux

// rtc-sync keeps the system clock and a DS1307 in agreement.
//
// In rtc-to-sys mode it reads the chip on an interval and disciplines the
// system clock, stepping when the offset exceeds the step limit and slewing
// below it. In sys-to-rtc mode it writes the system time to the chip.
// Both directions need CAP_SYS_TIME or root for clock adjustment.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clockcode-go/drivers/ds1307"
	"clockcode-go/drivers/periphshim"
	"clockcode-go/x/clockadj"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	busName := flag.String("bus", "", "periph bus name (overrides config)")
	direction := flag.String("direction", "", "rtc-to-sys or sys-to-rtc (overrides config)")
	once := flag.Bool("once", false, "sync once and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *busName != "" {
		cfg.Bus = *busName
	}
	if *direction != "" {
		cfg.Direction = *direction
	}
	if cfg.Direction != dirRTCToSys && cfg.Direction != dirSysToRTC {
		log.Fatalf("direction must be %s or %s, got %q", dirRTCToSys, dirSysToRTC, cfg.Direction)
	}

	bus, err := periphshim.Open(cfg.Bus)
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev := ds1307.New(bus)
	dev.Configure(ds1307.Config{Address: cfg.Addr, Mode12Hour: cfg.Mode12Hour})

	if *once {
		if err := syncOnce(dev, cfg); err != nil {
			log.Fatal(err)
		}
		return
	}
	runDaemon(dev, cfg)
}

func runDaemon(dev *ds1307.Device, cfg *Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("signal %v, shutting down", sig)
		cancel()
	}()

	tick := time.NewTicker(cfg.interval)
	defer tick.Stop()

	if err := syncOnce(dev, cfg); err != nil {
		log.Printf("sync: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := syncOnce(dev, cfg); err != nil {
				log.Printf("sync: %v", err)
			}
		}
	}
}

func syncOnce(dev *ds1307.Device, cfg *Config) error {
	if cfg.Direction == dirSysToRTC {
		now := time.Now().UTC()
		if err := dev.Set(now); err != nil {
			return err
		}
		log.Printf("wrote %s to chip", now.Format(time.RFC3339))
		return nil
	}

	rtc, err := dev.Now()
	if err != nil {
		if errors.Is(err, ds1307.ErrClockHalted) {
			return fmt.Errorf("chip oscillator halted, set it first: %w", err)
		}
		return err
	}
	// The chip only resolves seconds; treat the reading as the middle of
	// its second to halve the quantization error.
	offset := rtc.Add(500 * time.Millisecond).Sub(time.Now())

	if offset > cfg.stepLimit || offset < -cfg.stepLimit {
		if err := clockadj.Step(rtc); err != nil {
			return fmt.Errorf("step: %w", err)
		}
		log.Printf("stepped system clock by %v", offset)
		return nil
	}
	if err := clockadj.Slew(offset); err != nil {
		return fmt.Errorf("slew: %w", err)
	}
	log.Printf("slewing system clock by %v", offset)
	return nil
}

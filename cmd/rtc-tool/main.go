//go:build linux

// rtc-tool reads and writes a DS1307 over a Linux I2C bus.
//
// Usage:
//
//	rtc-tool [flags] read              print the chip time
//	rtc-tool [flags] set [unix]       write the given (or current) time
//	rtc-tool [flags] status            presence, running and hour mode
//	rtc-tool [flags] dump              raw register dump
//	rtc-tool [flags] sqw off|on [rate] square-wave output control
//	rtc-tool [flags] shell             interactive command loop
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/shlex"

	"clockcode-go/drivers/ds1307"
	"clockcode-go/drivers/periphshim"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	busName := flag.String("bus", "", "periph bus name (overrides config)")
	addr := flag.Uint("addr", 0, "chip address (overrides config)")
	hour12 := flag.Bool("hour12", false, "write hours in 12-hour form")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *busName != "" {
		cfg.Bus = *busName
	}
	if *addr != 0 {
		cfg.Addr = uint16(*addr)
	}
	if *hour12 {
		cfg.Mode12Hour = true
	}

	bus, err := periphshim.Open(cfg.Bus)
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev := ds1307.New(bus)
	dev.Configure(ds1307.Config{Address: cfg.Addr, Mode12Hour: cfg.Mode12Hour})

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"read"}
	}
	if args[0] == "shell" {
		runShell(dev)
		return
	}
	if err := runCommand(dev, args); err != nil {
		log.Fatal(err)
	}
}

func runCommand(dev *ds1307.Device, args []string) error {
	switch args[0] {
	case "read":
		t, err := dev.Now()
		if err != nil {
			return err
		}
		fmt.Println(t.Format("2006/01/02 15:04:05"))
		return nil

	case "set":
		t := time.Now().UTC()
		if len(args) > 1 {
			sec, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("set: bad timestamp %q", args[1])
			}
			t = time.Unix(sec, 0).UTC()
		}
		if err := dev.Set(t); err != nil {
			return err
		}
		fmt.Println(t.Unix())
		return nil

	case "status":
		snap := dev.Snapshot()
		fmt.Printf("present=%v running=%v mode12=%v pm=%v\n",
			snap.Present, snap.Running, snap.Mode12, snap.PM)
		return nil

	case "dump":
		regs, err := dev.DumpRegisters()
		if err != nil {
			return err
		}
		for i, b := range regs {
			fmt.Printf("%#02x: %#02x\n", i, b)
		}
		return nil

	case "sqw":
		return runSqw(dev, args[1:])

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runSqw(dev *ds1307.Device, args []string) error {
	if len(args) == 0 {
		out, err := dev.ReadClockOut()
		if err != nil {
			return err
		}
		if out.Enable {
			fmt.Printf("on %d Hz\n", out.Rate.Hz())
		} else {
			fmt.Printf("off level=%v\n", out.Level)
		}
		return nil
	}

	var out ds1307.ClockOut
	switch args[0] {
	case "on":
		out.Enable = true
		if len(args) > 1 {
			rate, err := strconv.Atoi(args[1])
			if err != nil || rate < 0 || rate > 3 {
				return fmt.Errorf("sqw: rate must be 0..3, got %q", args[1])
			}
			out.Rate = ds1307.SqwRate(rate)
		}
	case "off":
		out.Level = len(args) > 1 && args[1] == "high"
	default:
		return fmt.Errorf("sqw: want on or off, got %q", args[0])
	}
	return dev.SetClockOut(out)
}

func runShell(dev *ds1307.Device) {
	sc := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for sc.Scan() {
		argv, err := shlex.Split(sc.Text())
		if err != nil {
			fmt.Println("parse:", err)
		} else if len(argv) > 0 {
			if argv[0] == "exit" || argv[0] == "quit" {
				return
			}
			if err := runCommand(dev, argv); err != nil {
				fmt.Println(err)
			}
		}
		fmt.Print("> ")
	}
}

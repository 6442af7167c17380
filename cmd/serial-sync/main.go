// serial-sync talks to a board running the serialsync service over a USB
// serial port and pushes the host time to its battery-backed clock.
//
// Usage:
//
//	serial-sync -port /dev/ttyACM0 check       probe the chip
//	serial-sync -port /dev/ttyACM0 set [unix]  write host (or given) time
//	serial-sync -port /dev/ttyACM0 get         print the chip time
//
// With no command it probes and then writes the current host time, which is
// the everything-in-one invocation meant for cron.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

func main() {
	portName := flag.String("port", "/dev/ttyACM0", "serial port of the board")
	baud := flag.Int("baud", 9600, "baud rate")
	timeout := flag.Duration("timeout", 3*time.Second, "per-reply timeout")
	flag.Parse()

	port, err := serial.Open(*portName, &serial.Mode{BaudRate: *baud})
	if err != nil {
		log.Fatalf("open %s: %v", *portName, err)
	}
	defer port.Close()
	if err := port.SetReadTimeout(*timeout); err != nil {
		log.Fatalf("set timeout: %v", err)
	}

	link := &link{port: port, r: bufio.NewReader(port)}

	args := flag.Args()
	cmd := "sync"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "check":
		if err := link.check(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("OK")

	case "get":
		s, err := link.getTime()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(s)

	case "set":
		sec := time.Now().Unix()
		if len(args) > 1 {
			sec, err = strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				log.Fatalf("set: bad timestamp %q", args[1])
			}
		}
		if err := link.setUnix(sec); err != nil {
			log.Fatal(err)
		}
		fmt.Println(sec)

	case "sync":
		if err := link.check(); err != nil {
			log.Fatal(err)
		}
		sec := time.Now().Unix()
		if err := link.setUnix(sec); err != nil {
			log.Fatal(err)
		}
		s, err := link.getTime()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("synced, chip reports %s\n", s)

	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

type link struct {
	port serial.Port
	r    *bufio.Reader
}

func (l *link) roundtrip(cmd string) (string, error) {
	if _, err := l.port.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	line, err := l.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("no reply to %q: %w", cmd, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (l *link) check() error {
	reply, err := l.roundtrip("CHECK_RTC")
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("chip not ready: %q", reply)
	}
	return nil
}

func (l *link) setUnix(sec int64) error {
	want := strconv.FormatInt(sec, 10)
	reply, err := l.roundtrip("SET_UNIX " + want)
	if err != nil {
		return err
	}
	if reply != want {
		return fmt.Errorf("set not confirmed: sent %s, got %q", want, reply)
	}
	return nil
}

func (l *link) getTime() (string, error) {
	reply, err := l.roundtrip("GET_TIME")
	if err != nil {
		return "", err
	}
	if reply == "ERROR" {
		return "", fmt.Errorf("board reported a read failure")
	}
	return reply, nil
}

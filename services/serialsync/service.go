// Package serialsync speaks the line-based host synchronization protocol on a
// serial port:
//
//	CHECK_RTC        -> "OK" when the chip answers, "ERROR" otherwise
//	SET_UNIX <secs>  -> echoes the accepted timestamp
//	T<secs>          -> legacy form of SET_UNIX
//	GET_TIME         -> "YYYY/MM/DD HH:MM:SS"
//
// The service never touches the RTC directly; it forwards every command to
// the clock service over the bus, so the device keeps a single owner.
package serialsync

import (
	"context"
	"strconv"
	"time"

	"clockcode-go/bus"
	"clockcode-go/types"
)

// Port is the minimal serial capability the service needs. On RP2 boards the
// uartx UART satisfies it directly.
type Port interface {
	Write(b []byte) (int, error)
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

const (
	maxLine        = 64
	requestTimeout = 2 * time.Second
)

type Service struct {
	port Port
}

func New(port Port) *Service {
	return &Service{port: port}
}

// Start launches the reader loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	buf := make([]byte, 16)
	line := make([]byte, 0, maxLine)

	for {
		if ctx.Err() != nil {
			println("Info: serialsync service stopping")
			return
		}
		n, err := s.port.RecvSomeContext(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				println("Info: serialsync service stopping")
				return
			}
			continue
		}
		for _, b := range buf[:n] {
			switch b {
			case '\n', '\r':
				if len(line) > 0 {
					s.handleLine(ctx, conn, string(line))
					line = line[:0]
				}
			default:
				if len(line) < maxLine {
					line = append(line, b)
				}
			}
		}
	}
}

func (s *Service) handleLine(ctx context.Context, conn *bus.Connection, line string) {
	switch {
	case line == "CHECK_RTC":
		if _, err := s.readNow(ctx, conn); err != nil {
			s.send("ERROR")
			return
		}
		s.send("OK")

	case line == "GET_TIME":
		reading, err := s.readNow(ctx, conn)
		if err != nil {
			s.send("ERROR")
			return
		}
		s.send(formatReading(reading))

	case len(line) > 9 && line[:9] == "SET_UNIX ":
		s.setUnix(ctx, conn, line[9:])

	case len(line) > 1 && line[0] == 'T' && isDigits(line[1:]):
		s.setUnix(ctx, conn, line[1:])

	default:
		s.send("ERROR")
	}
}

func (s *Service) setUnix(ctx context.Context, conn *bus.Connection, arg string) {
	sec, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		s.send("ERROR")
		return
	}
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := conn.NewMessage(bus.T("clock", "control", "set"), types.SetTimeParams{Unix: sec}, false)
	reply, err := conn.RequestWait(rctx, req)
	if err != nil {
		s.send("ERROR")
		return
	}
	if state, ok := reply.Payload.(types.ClockState); !ok || state.Error != "" {
		s.send("ERROR")
		return
	}
	// The host checks the echo against what it sent.
	s.send(arg)
}

func (s *Service) readNow(ctx context.Context, conn *bus.Connection) (types.TimeReading, error) {
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := conn.NewMessage(bus.T("clock", "control", "read_now"), nil, false)
	reply, err := conn.RequestWait(rctx, req)
	if err != nil {
		return types.TimeReading{}, err
	}
	reading, ok := reply.Payload.(types.TimeReading)
	if !ok {
		return types.TimeReading{}, errNoReading{}
	}
	return reading, nil
}

func (s *Service) send(line string) {
	_, _ = s.port.Write(append([]byte(line), '\n'))
}

func formatReading(r types.TimeReading) string {
	var b []byte
	b = pad4(b, r.Year)
	b = append(b, '/')
	b = pad2(b, r.Month)
	b = append(b, '/')
	b = pad2(b, r.Day)
	b = append(b, ' ')
	b = pad2(b, r.Hour)
	b = append(b, ':')
	b = pad2(b, r.Minute)
	b = append(b, ':')
	b = pad2(b, r.Second)
	return string(b)
}

func pad2(b []byte, v int) []byte {
	return append(b, byte('0'+(v/10)%10), byte('0'+v%10))
}

func pad4(b []byte, v int) []byte {
	b = pad2(b, v/100)
	return pad2(b, v)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

type errNoReading struct{}

func (errNoReading) Error() string { return "no reading" }

// Package clock owns a DS1307 device and exposes it on the message bus as a
// time source: a retained reading republished on a configurable cadence plus
// request/reply controls for setting the time and the square-wave output.
// Callers poll the retained topics on whatever cadence suits them; the
// service assumes nothing about how often it is read.
package clock

import (
	"context"
	"errors"
	"time"

	"clockcode-go/bus"
	"clockcode-go/drivers/ds1307"
	"clockcode-go/errcode"
	"clockcode-go/types"
	"clockcode-go/x/mathx"
	"clockcode-go/x/timex"
)

var (
	topicConfig  = bus.T("config", "clock")
	topicTime    = bus.T("clock", "time")
	topicState   = bus.T("clock", "state")
	topicControl = bus.T("clock", "control", "+")
)

const (
	defaultPeriod = time.Second
	minPeriodMS   = 100
	maxPeriodMS   = 3_600_000
)

type Service struct {
	dev    *ds1307.Device
	period time.Duration
}

func New(dev *ds1307.Device) *Service {
	return &Service{dev: dev, period: defaultPeriod}
}

// Start subscribes to the service topics and launches the loop. Subscribing
// here keeps messages published right after Start from being missed.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	cfgSub := conn.Subscribe(topicConfig)
	ctlSub := conn.Subscribe(topicControl)
	go s.serviceLoop(ctx, conn, cfgSub, ctlSub)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection, cfgSub, ctlSub *bus.Subscription) {
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(ctlSub)

	s.publishTime(conn)

	tick := time.NewTicker(s.period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: clock service stopping")
			return
		case <-tick.C:
			s.publishTime(conn)
		case msg := <-cfgSub.Channel():
			if s.applyConfig(msg.Payload) {
				tick.Reset(s.period)
			}
		case msg := <-ctlSub.Channel():
			s.handleControl(conn, msg)
		}
	}
}

// applyConfig reports whether the publish period changed.
func (s *Service) applyConfig(payload any) bool {
	cfg, ok := payload.(types.ClockConfig)
	if !ok {
		m, ok := payload.(map[string]any)
		if !ok {
			return false
		}
		if v, ok := asInt64(m["publish_ms"]); ok {
			cfg.PublishMS = int(v)
		}
		if v, ok := m["mode_12h"].(bool); ok {
			cfg.Mode12Hour = v
		}
	}

	s.dev.SetMode12Hour(cfg.Mode12Hour)
	if cfg.PublishMS > 0 {
		ms := mathx.Clamp(cfg.PublishMS, minPeriodMS, maxPeriodMS)
		s.period = time.Duration(ms) * time.Millisecond
		return true
	}
	return false
}

func (s *Service) handleControl(conn *bus.Connection, msg *bus.Message) {
	verb := msg.Topic[len(msg.Topic)-1]
	switch verb {
	case "set":
		sec, ok := setParams(msg.Payload)
		if !ok {
			conn.Reply(msg, types.ClockState{Error: string(errcode.InvalidPayload), TS: timex.NowMs()}, false)
			return
		}
		err := s.dev.Set(timex.FromUnix(sec))
		s.replyState(conn, msg, err)
		s.publishTime(conn)

	case "clockout":
		p, ok := clockOutParams(msg.Payload)
		if !ok {
			conn.Reply(msg, types.ClockState{Error: string(errcode.InvalidPayload), TS: timex.NowMs()}, false)
			return
		}
		err := s.dev.SetClockOut(ds1307.ClockOut{
			Enable: p.Enable,
			Level:  p.Level,
			Rate:   ds1307.SqwRate(mathx.Clamp(int(p.Rate), 0, 3)),
		})
		s.replyState(conn, msg, err)

	case "read_now":
		reading, err := s.publishTime(conn)
		if err != nil {
			s.replyState(conn, msg, err)
			return
		}
		conn.Reply(msg, reading, false)

	default:
		conn.Reply(msg, types.ClockState{Error: string(errcode.Unsupported), TS: timex.NowMs()}, false)
	}
}

// publishTime reads the chip and updates the retained time and state topics.
// The time topic is only touched when the read produced trustworthy data.
func (s *Service) publishTime(conn *bus.Connection) (types.TimeReading, error) {
	var c ds1307.Clock
	err := s.dev.ReadTime(&c)

	now := timex.NowMs()
	state := types.ClockState{
		Present: s.dev.Present(),
		Running: err == nil,
		Mode12:  s.dev.Mode12Hour(),
		TS:      now,
	}
	if err != nil {
		state.Error = string(CodeOf(s.dev, err))
	}
	conn.Publish(conn.NewMessage(topicState, state, true))

	if err != nil {
		return types.TimeReading{}, err
	}

	reading := types.TimeReading{
		UnixMS:  timex.UnixMs(c.Time()),
		Year:    2000 + int(c.Year),
		Month:   int(c.Month),
		Day:     int(c.Day),
		Weekday: int(c.Weekday),
		Hour:    int(c.Hour),
		Minute:  int(c.Minute),
		Second:  int(c.Second),
		TS:      now,
	}
	conn.Publish(conn.NewMessage(topicTime, reading, true))
	return reading, nil
}

func (s *Service) replyState(conn *bus.Connection, msg *bus.Message, err error) {
	state := types.ClockState{
		Present: s.dev.Present(),
		Running: s.dev.Running(),
		Mode12:  s.dev.Mode12Hour(),
		TS:      timex.NowMs(),
	}
	if err != nil {
		state.Error = string(CodeOf(s.dev, err))
	}
	conn.Reply(msg, state, false)
}

// CodeOf maps a driver error to its stable bus-facing code.
func CodeOf(dev *ds1307.Device, err error) errcode.Code {
	switch {
	case err == nil:
		return errcode.OK
	case errors.Is(err, ds1307.ErrClockHalted):
		return errcode.ClockHalted
	case errors.Is(err, ds1307.ErrShortRead):
		return errcode.ShortRead
	case !dev.Present():
		return errcode.NotPresent
	default:
		return errcode.BusError
	}
}

// ---- payload coercion ----

func setParams(payload any) (int64, bool) {
	if p, ok := payload.(types.SetTimeParams); ok {
		return p.Unix, true
	}
	if m, ok := payload.(map[string]any); ok {
		return asInt64(m["unix"])
	}
	return 0, false
}

func clockOutParams(payload any) (types.ClockOutParams, bool) {
	if p, ok := payload.(types.ClockOutParams); ok {
		return p, true
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return types.ClockOutParams{}, false
	}
	var p types.ClockOutParams
	if v, ok := m["enable"].(bool); ok {
		p.Enable = v
	}
	if v, ok := m["level"].(bool); ok {
		p.Level = v
	}
	if v, ok := asInt64(m["rate"]); ok {
		p.Rate = uint8(v)
	}
	return p, true
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float32:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

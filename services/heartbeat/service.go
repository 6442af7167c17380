// Package heartbeat publishes a retained liveness beat so a host watching
// the bus can tell the firmware is still scheduling goroutines.
package heartbeat

import (
	"context"
	"time"

	"clockcode-go/bus"
	"clockcode-go/types"
	"clockcode-go/x/timex"
)

var (
	topicConfig = bus.T("config", "heartbeat")
	topicState  = bus.T("heartbeat", "state")
)

type Service struct{}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case <-tick.C:
			conn.Publish(conn.NewMessage(topicState, types.ServiceState{
				Level:  "ready",
				Status: "beat",
				TS:     timex.NowMs(),
			}, true))
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if iv, ok := m["interval"].(float64); ok && iv > 0 {
					tick.Reset(time.Duration(iv) * time.Second)
				}
			}
		}
	}
}

// Start launches the beat loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

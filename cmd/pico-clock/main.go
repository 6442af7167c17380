//go:build rp2040

// pico-clock is the board firmware: a DS1307 on I2C0 published over the
// message bus by the clock service, with the serialsync protocol on UART0 so
// a host can set and query the chip over the serial link.
package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"clockcode-go/bus"
	"clockcode-go/drivers/ds1307"
	"clockcode-go/services/clock"
	"clockcode-go/services/heartbeat"
	"clockcode-go/services/serialsync"
	"clockcode-go/types"
)

func main() {
	// Give the USB console a moment to enumerate.
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	println("[main] configuring i2c0 ...")
	if err := machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 100_000, // the chip tops out at standard mode
		SDA:       machine.GP4,
		SCL:       machine.GP5,
	}); err != nil {
		println("[main] i2c0 configure failed:", err.Error())
		return
	}

	println("[main] configuring uart0 ...")
	uart := uartx.UART0
	_ = uart.Configure(uartx.UARTConfig{
		BaudRate: 9600,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	println("[main] bootstrapping bus ...")
	b := bus.NewBus(8)

	dev := ds1307.New(machine.I2C0)
	if err := clock.New(dev).Start(ctx, b.NewConnection("clock")); err != nil {
		println("[main] clock start failed:", err.Error())
		return
	}
	if err := serialsync.New(uart).Start(ctx, b.NewConnection("serialsync")); err != nil {
		println("[main] serialsync start failed:", err.Error())
		return
	}
	if err := (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		println("[main] heartbeat start failed:", err.Error())
		return
	}

	uiConn := b.NewConnection("ui")
	uiConn.Publish(uiConn.NewMessage(bus.T("config", "clock"), types.ClockConfig{
		PublishMS: 1000,
	}, true))

	// Mirror the retained reading onto the console.
	sub := uiConn.Subscribe(bus.T("clock", "time"))
	for m := range sub.Channel() {
		if r, ok := m.Payload.(types.TimeReading); ok {
			println("[clock]", int(r.Year), "/", int(r.Month), "/", int(r.Day),
				" ", int(r.Hour), ":", int(r.Minute), ":", int(r.Second))
		}
	}
}

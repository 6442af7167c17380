package bus

import (
	"context"
	"sort"
	"testing"
	"time"

	"clockcode-go/types"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("clock", "time"))

	reading := types.TimeReading{Year: 2025, Month: 3, Day: 14, Hour: 9, Minute: 26, Second: 30}
	conn.Publish(conn.NewMessage(T("clock", "time"), reading, false))

	select {
	case got := <-sub.Channel():
		r, ok := got.Payload.(types.TimeReading)
		if !ok || r != reading {
			t.Errorf("payload = %#v, want %+v", got.Payload, reading)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	state := types.ClockState{Present: true, Running: true}
	conn.Publish(conn.NewMessage(T("clock", "state"), state, true))

	// Late subscriber still sees the retained state.
	sub := conn.Subscribe(T("clock", "state"))

	select {
	case got := <-sub.Channel():
		s, ok := got.Payload.(types.ClockState)
		if !ok || !s.Present || !s.Running {
			t.Errorf("retained payload = %#v, want %+v", got.Payload, state)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for retained message")
	}
}

// -----------------------------------------------------------------------------
// Wildcards
// -----------------------------------------------------------------------------

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("clock", "+", "state"))
	s2 := c.Subscribe(T("clock", "+", "+"))
	s3 := c.Subscribe(T("clock", "sqw", "+"))
	sNo := c.Subscribe(T("clock", "+", "rate"))

	c.Publish(b.NewMessage(T("clock", "sqw", "state"), "m1", false))

	expectOneOf(t, s1, "m1")
	expectOneOf(t, s2, "m1")
	expectOneOf(t, s3, "m1")
	expectNoMessage(t, sNo)

	c.Publish(b.NewMessage(T("clock", "osc", "halted"), "m2", false))

	expectOneOf(t, s2, "m2")
	expectNoMessage(t, s1)
	expectNoMessage(t, s3)
	expectNoMessage(t, sNo)

	// Two tokens never match the three-token patterns.
	c.Publish(b.NewMessage(T("clock", "state"), "m3", false))
	expectNoMessage(t, s1)
	expectNoMessage(t, s2)
	expectNoMessage(t, s3)
	expectNoMessage(t, sNo)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sClockHash := c.Subscribe(T("clock", "#"))
	sHash := c.Subscribe(T("#"))
	sCtlHash := c.Subscribe(T("clock", "control", "#"))
	sExact := c.Subscribe(T("clock"))

	c.Publish(b.NewMessage(T("clock"), "p1", false))
	expectOneOf(t, sClockHash, "p1")
	expectOneOf(t, sHash, "p1")
	expectOneOf(t, sExact, "p1")
	expectNoMessage(t, sCtlHash)

	c.Publish(b.NewMessage(T("clock", "control"), "p2", false))
	expectOneOf(t, sClockHash, "p2")
	expectOneOf(t, sHash, "p2")
	expectOneOf(t, sCtlHash, "p2")
	expectNoMessage(t, sExact)

	c.Publish(b.NewMessage(T("clock", "control", "set"), "p3", false))
	expectOneOf(t, sClockHash, "p3")
	expectOneOf(t, sHash, "p3")
	expectOneOf(t, sCtlHash, "p3")
	expectNoMessage(t, sExact)
}

func TestWildcard_RetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("clock"), "r0", true))
	c.Publish(b.NewMessage(T("clock", "time"), "r1", true))
	c.Publish(b.NewMessage(T("clock", "time", "utc"), "r2", true))
	c.Publish(b.NewMessage(T("clock", "state"), "r3", true))

	sAll := c.Subscribe(T("clock", "#"))
	gotAll := drainPayloads(t, sAll, 4)
	assertUnorderedEqual(t, gotAll, []string{"r0", "r1", "r2", "r3"})

	sPlusHash := c.Subscribe(T("clock", "+", "#"))
	gotPH := drainPayloads(t, sPlusHash, 3)
	assertUnorderedEqual(t, gotPH, []string{"r1", "r2", "r3"})

	sPlus := c.Subscribe(T("clock", "+"))
	gotP := drainPayloads(t, sPlus, 2)
	assertUnorderedEqual(t, gotP, []string{"r1", "r3"})
}

func TestWildcard_RetainedClear(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("clock", "time"), "stale", true))
	c.Publish(b.NewMessage(T("clock", "state"), "keep", true))

	// A nil retained payload clears the slot.
	c.Publish(b.NewMessage(T("clock", "time"), nil, true))

	s := c.Subscribe(T("clock", "#"))
	got := drainPayloads(t, s, 1)

	if len(got) != 1 || got[0] != "keep" {
		t.Fatalf("expected only 'keep' after clear, got %v", got)
	}
}

func TestWildcard_NoMatchCases(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("test")

	s := c.Subscribe(T("clock", "+", "state"))

	c.Publish(b.NewMessage(T("clock", "state"), "x", false))
	expectNoMessage(t, s)

	c.Publish(b.NewMessage(T("clock", "sqw", "rate"), "y", false))
	expectNoMessage(t, s)
}

// -----------------------------------------------------------------------------
// Request/Reply
// -----------------------------------------------------------------------------

func TestRequestReply_RequestWait(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("host")
	respConn := b.NewConnection("clock")

	reqTopic := T("clock", "control", "read_now")
	respSub := respConn.Subscribe(reqTopic)
	defer respConn.Unsubscribe(respSub)

	reading := types.TimeReading{Year: 2025, Month: 1, Day: 27, Hour: 13}
	go func() {
		if msg, ok := <-respSub.Channel(); ok {
			respConn.Reply(msg, reading, false)
		}
	}()

	req := b.NewMessage(reqTopic, nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := reqConn.RequestWait(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error waiting for reply: %v", err)
	}
	if got, ok := reply.Payload.(types.TimeReading); !ok || got != reading {
		t.Fatalf("unexpected reply payload: %#v", reply.Payload)
	}
	if len(req.ReplyTo) == 0 {
		t.Fatal("request lacks ReplyTo after RequestWait")
	}
	if !topicsEqual(reply.Topic, req.ReplyTo) {
		t.Fatalf("reply topic %v != request ReplyTo %v", reply.Topic, req.ReplyTo)
	}
}

func TestRequestReply_Timeout(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("host")

	// Nothing subscribes to this control verb, so the request must time out.
	req := b.NewMessage(T("clock", "control", "noop"), nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := reqConn.RequestWait(ctx, req)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestRequestReply_ManualSubscription(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("host")
	respConn := b.NewConnection("clock")

	reqTopic := T("clock", "control", "set")
	reqSub := respConn.Subscribe(reqTopic)
	defer respConn.Unsubscribe(reqSub)

	reqMsg := b.NewMessage(reqTopic, types.SetTimeParams{Unix: 1737982800}, false)
	replySub := reqConn.Request(reqMsg)
	defer reqConn.Unsubscribe(replySub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if msg, ok := <-reqSub.Channel(); ok {
			p := msg.Payload.(types.SetTimeParams)
			respConn.Reply(msg, types.ClockState{Present: true, Running: true, TS: p.Unix * 1000}, false)
		}
	}()

	select {
	case got := <-replySub.Channel():
		state, ok := got.Payload.(types.ClockState)
		if !ok {
			t.Fatalf("unexpected reply type: %#v", got.Payload)
		}
		if !state.Running || state.TS != 1737982800000 {
			t.Fatalf("unexpected reply content: %#v", state)
		}
	case <-time.After(300 * time.Millisecond):
		t.Fatal("timeout waiting for manual reply")
	}

	<-done
}

// -----------------------------------------------------------------------------
// Topic construction
// -----------------------------------------------------------------------------

func TestTopic_IntTokens(t *testing.T) {
	got := T("clock", "instance", 2, "state")
	want := Topic{"clock", "instance", "2", "state"}
	if !topicsEqual(got, want) {
		t.Fatalf("T = %v, want %v", got, want)
	}
	if got.String() != "clock/instance/2/state" {
		t.Fatalf("String = %q", got.String())
	}
}

func TestTopic_InvalidTokenPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for non-string, non-integer token, got none")
		}
	}()

	_ = T([]byte{1, 2, 3})
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func topicsEqual(a, b Topic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func expectOneOf(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		s, ok := got.Payload.(string)
		if !ok || s != want {
			t.Fatalf("unexpected payload: %v (want %q)", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(60 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.Now().Add(300 * time.Millisecond)
	for len(out) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if s, ok := m.Payload.(string); ok {
				out = append(out, s)
			} else {
				t.Fatalf("non-string payload in drain: %#v", m.Payload)
			}
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(out) != n {
		t.Fatalf("drainPayloads: expected %d messages, got %d (%v)", n, len(out), out)
	}
	return out
}

func assertUnorderedEqual(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d (%v vs %v)", len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %q, want %q (got=%v want=%v)", i, got[i], want[i], got, want)
		}
	}
}

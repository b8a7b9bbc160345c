package interp

import "sync"

// channelState backs a channel.make pair: the underlying queue permits
// multiple senders even though the API models single-producer/single-
// consumer (spec §5). Close drops the sender side so receivers observe
// disconnection rather than blocking forever.
type channelState struct {
	mu     sync.Mutex
	closed bool
	ch     chan Value
}

func newChannelState() *channelState {
	return &channelState{ch: make(chan Value, 1)}
}

// send returns Ok(Unit) or Err(Closed).
func (c *channelState) send(v Value) Value {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Err(&StringValue{Value: "Closed"})
	}
	c.mu.Unlock()
	c.ch <- v
	return Ok(&UnitValue{})
}

// recv returns Ok(v) or Err(Closed). It blocks until a value arrives or
// the channel is closed and drained.
func (c *channelState) recv() Value {
	v, ok := <-c.ch
	if !ok {
		return Err(&StringValue{Value: "Closed"})
	}
	return Ok(v)
}

func (c *channelState) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	c.mu.Unlock()
}

func makeChannelPair() (*ChannelValue, *ChannelValue) {
	state := newChannelState()
	return &ChannelValue{Kind: ChanSend, Chan: state}, &ChannelValue{Kind: ChanRecv, Chan: state}
}

// MakeChannelPair constructs a linked send/recv pair backing channel.make.
func MakeChannelPair() (*ChannelValue, *ChannelValue) {
	return makeChannelPair()
}

// Send pushes v onto the channel; valid only on the Sender end.
func (c *ChannelValue) Send(v Value) Value { return c.Chan.send(v) }

// Recv blocks for a value or Closed; valid only on the Receiver end.
func (c *ChannelValue) Recv() Value { return c.Chan.recv() }

// Close marks the channel disconnected so pending/future Recv calls
// observe Err(Closed) instead of blocking forever.
func (c *ChannelValue) Close() { c.Chan.close() }

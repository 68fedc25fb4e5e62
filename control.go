package main

import (
	"errors"
	"sync/atomic"
)

var ErrClosed = errors.New("control closed")

// Retarget asks the render side to move the tone to Frequency.
type Retarget struct {
	Frequency float64
	Glide     Glide
}

type Poll int

const (
	Empty Poll = iota
	Received
	Disconnected
)

func (p Poll) String() string {
	switch p {
	case Empty:
		return "empty"
	case Received:
		return "received"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// Control hands retargets from one producer to the render loop.
//
// It holds only the latest message: a send overwrites whatever the
// consumer has not picked up yet. Neither side ever blocks.
type Control struct {
	slot      atomic.Pointer[Retarget]
	closed    atomic.Bool
	coalesced atomic.Uint64
}

func (c *Control) Send(r Retarget) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if prev := c.slot.Swap(&r); prev != nil {
		c.coalesced.Add(1)
	}
	return nil
}

// Close marks the producer gone. A pending message is still delivered.
func (c *Control) Close() {
	c.closed.Store(true)
}

func (c *Control) TryReceive() (Retarget, Poll) {
	// load closed first so a message sent right before Close is not lost
	closed := c.closed.Load()
	if r := c.slot.Swap(nil); r != nil {
		return *r, Received
	}
	if closed {
		return Retarget{}, Disconnected
	}
	return Retarget{}, Empty
}

// Coalesced counts messages overwritten before the consumer saw them.
func (c *Control) Coalesced() uint64 {
	return c.coalesced.Load()
}

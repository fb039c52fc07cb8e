package cbuffer

import (
	"sync/atomic"
	"time"
)

// backoff is the fixed sleep blocking Push/Pop use when the ring rejects
// an operation. It is a pragmatic compromise, not a condition variable:
// the blocking variants assume the other side of the channel is actively
// draining or filling the ring.
const backoff = 5 * time.Microsecond

// sharedRing is the Ring Core jointly owned by one Sender and one
// Receiver. It is released once both endpoints have called Close.
//
// Calling any Sender or Receiver method after both endpoints have closed
// is caller misuse, on par with calling Sender/Receiver methods from more
// than one goroutine: the Ring Core's backing Region has been unmapped,
// and the behavior of touching it again is undefined.
type sharedRing struct {
	ring *Ring
	refs atomic.Int32
}

func (s *sharedRing) release() error {
	if s.refs.Add(-1) == 0 {
		return s.ring.close()
	}
	return nil
}

// Sender is the single producer handle onto a channel's Ring Core. Channel
// hands out exactly one Sender, and it must only be used by one goroutine
// for its entire lifetime. Nothing prevents copying the Sender value; a
// copy shares the same Ring Core, so the single-producer half of SPSC
// rests on the caller.
type Sender struct {
	shared *sharedRing
	_      [0]func() // makes Sender not comparable
}

// Receiver is the single consumer handle onto a channel's Ring Core.
// Channel hands out exactly one Receiver, and it must only be used by one
// goroutine for its entire lifetime. Nothing prevents copying the Receiver
// value; a copy shares the same Ring Core, so the single-consumer half of
// SPSC rests on the caller.
type Receiver struct {
	shared *sharedRing
	_      [0]func()
}

// Channel constructs one Ring Core sized per size and returns the
// disjoint Sender/Receiver pair that share it. The Ring Core's backing
// Region is released once both endpoints have been closed.
func Channel(size BufferSize) (*Sender, *Receiver, error) {
	ring, err := newRing(size)
	if err != nil {
		return nil, nil, err
	}
	shared := &sharedRing{ring: ring}
	shared.refs.Store(2)
	return &Sender{shared: shared}, &Receiver{shared: shared}, nil
}

// TryPush attempts a single non-blocking push of data. It returns true on
// success, false if the ring does not currently have room (including the
// case where data is too large to ever fit, regardless of occupancy).
func (s *Sender) TryPush(data []byte) bool {
	return s.shared.ring.push(data)
}

// Push blocks, retrying with a fixed backoff sleep, until data has been
// pushed.
func (s *Sender) Push(data []byte) {
	for !s.shared.ring.push(data) {
		time.Sleep(backoff)
	}
}

// Size returns the ring's total capacity in bytes.
func (s *Sender) Size() uint32 { return s.shared.ring.size() }

// Used returns an advisory count of currently occupied bytes.
func (s *Sender) Used() uint32 { return s.shared.ring.used() }

// Unused returns an advisory lower bound on free bytes available to push.
func (s *Sender) Unused() uint32 { return s.shared.ring.unused() }

// IsEmpty reports whether the ring held no frames as of the last check.
func (s *Sender) IsEmpty() bool { return s.shared.ring.isEmpty() }

// Close releases this endpoint's share of the Ring Core. The backing
// Region is unmapped once the Receiver has also closed.
func (s *Sender) Close() error { return s.shared.release() }

// TryPop attempts a single non-blocking pop. If a frame is available, it
// invokes consume with the frame's payload and returns true; otherwise
// it returns false without invoking consume.
func (r *Receiver) TryPop(consume func([]byte)) bool {
	return r.shared.ring.pop(consume)
}

// Pop blocks, retrying with a fixed backoff sleep, until a frame is
// available, then invokes consume with its payload.
func (r *Receiver) Pop(consume func([]byte)) {
	for !r.shared.ring.pop(consume) {
		time.Sleep(backoff)
	}
}

// Size returns the ring's total capacity in bytes.
func (r *Receiver) Size() uint32 { return r.shared.ring.size() }

// Used returns an advisory count of currently occupied bytes.
func (r *Receiver) Used() uint32 { return r.shared.ring.used() }

// Unused returns an advisory lower bound on free bytes available to the
// producer.
func (r *Receiver) Unused() uint32 { return r.shared.ring.unused() }

// IsEmpty reports whether the ring held no frames as of the last check.
// A true result means a subsequent TryPop from this goroutine will
// return false unless a push intervenes.
func (r *Receiver) IsEmpty() bool { return r.shared.ring.isEmpty() }

// Close releases this endpoint's share of the Ring Core. The backing
// Region is unmapped once the Sender has also closed.
func (r *Receiver) Close() error { return r.shared.release() }

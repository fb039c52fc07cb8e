package cbuffer

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

// frameHeaderSize is the width of a frame's little-endian length prefix.
const frameHeaderSize = 4

// BufferSize enumerates the capacities a Ring Core may be constructed
// with. Each value is a whole multiple of the OS page size, as required
// by the underlying double-mapped Region.
type BufferSize int

const (
	Buf64M BufferSize = iota
	Buf128M
	Buf256M
	Buf512M
)

const mib = 1024 * 1024

// bytes returns the capacity, in bytes, that size names, and false if size
// is not one of the declared BufferSize constants.
func (size BufferSize) bytes() (int, bool) {
	switch size {
	case Buf64M:
		return 64 * mib, true
	case Buf128M:
		return 128 * mib, true
	case Buf256M:
		return 256 * mib, true
	case Buf512M:
		return 512 * mib, true
	default:
		return 0, false
	}
}

// Ring is a lock-free single-producer single-consumer byte-message queue
// built on a double-mapped Region. It frames each message as a 4-byte
// little-endian length followed by the payload, and stores head/tail as
// byte offsets in [0, capacity) rather than the power-of-2 masked
// counters a non-double-mapped ring would need: because any offset's
// next `capacity` bytes are always linear in the Region, push and pop
// never have to branch a write or read across the wrap point.
//
// # Thread Safety
//
// Ring is ONLY safe for single producer + single consumer use. push must
// only ever be called by one goroutine (the producer); pop must only
// ever be called by one goroutine (the consumer). Calling either from
// more than one goroutine is a data race.
//
// head is mutated only by the consumer and is read by the producer for
// space accounting. tail is mutated only by the producer and is read by
// the consumer for emptiness checks. Go's sync/atomic load/store already
// give the acquire/release pairing this protocol needs: a producer's
// Store to tail happens-before the matching consumer Load of tail that
// observes it, and symmetrically for head.
type Ring struct {
	region   *region
	capacity uint32
	head     atomic.Uint32 // consumer-owned
	tail     atomic.Uint32 // producer-owned
}

// newRing constructs a Ring Core of the requested size, mapping its
// backing Region. It returns an error wrapping ErrOverflow if size is not
// one of the declared BufferSize constants.
func newRing(size BufferSize) (*Ring, error) {
	capacity, ok := size.bytes()
	if !ok {
		return nil, fmt.Errorf("cbuffer: invalid BufferSize %d: %w", int(size), ErrOverflow)
	}
	reg, err := newRegion(capacity)
	if err != nil {
		return nil, err
	}
	return &Ring{region: reg, capacity: uint32(capacity)}, nil
}

// push writes a framed copy of data at the current tail and publishes
// the new tail. It must only be called by the producer goroutine.
//
// It returns false, without mutating the ring, if the frame does not
// currently fit: either because the ring is too full, or because data is
// large enough that it could never fit regardless of occupancy (one byte
// of capacity is always reserved to disambiguate empty from full, so the
// largest admissible payload is capacity-frameHeaderSize-1 bytes). Both
// cases are the same "rejected, retry later" result to the caller; push
// never distinguishes them with an error.
func (r *Ring) push(data []byte) bool {
	capacity := uint64(r.capacity)
	payload := uint64(len(data))
	need := payload + frameHeaderSize

	tail := uint64(r.tail.Load())
	head := uint64(r.head.Load()) // acquire: observe consumer's freed space
	used := (tail - head + capacity) % capacity
	free := capacity - used

	if free <= need {
		return false
	}

	frame := r.region.at(int(tail), int(need))
	binary.LittleEndian.PutUint32(frame[:frameHeaderSize], uint32(payload))
	copy(frame[frameHeaderSize:], data)

	newTail := (tail + need) % capacity
	r.tail.Store(uint32(newTail)) // release: publish the frame to the consumer
	return true
}

// pop invokes consume with the payload of the oldest unconsumed frame and
// publishes the new head. It must only be called by the consumer
// goroutine. consume's slice is a borrowed view into the Region and is
// valid only for the duration of the call; the consumer must finish with
// it before the next pop.
//
// It returns false, without invoking consume, if the ring is empty.
func (r *Ring) pop(consume func([]byte)) bool {
	capacity := uint64(r.capacity)

	tail := uint64(r.tail.Load()) // acquire: observe producer's published frame
	head := uint64(r.head.Load())
	if head == tail {
		return false
	}

	length := binary.LittleEndian.Uint32(r.region.at(int(head), frameHeaderSize))
	payload := r.region.at(int(head)+frameHeaderSize, int(length))
	consume(payload)

	newHead := (head + frameHeaderSize + uint64(length)) % capacity
	r.head.Store(uint32(newHead)) // release: return the space to the producer
	return true
}

// size returns the ring's total capacity in bytes.
func (r *Ring) size() uint32 {
	return r.capacity
}

// used returns an advisory count of currently occupied bytes. It is a
// lower bound on what the consumer can see to read, since only the
// producer can grow it further.
func (r *Ring) used() uint32 {
	capacity := uint64(r.capacity)
	tail := uint64(r.tail.Load())
	head := uint64(r.head.Load())
	return uint32((tail - head + capacity) % capacity)
}

// unused returns an advisory count of free bytes. It is a lower bound on
// space visible to the producer, since only the consumer can free more.
func (r *Ring) unused() uint32 {
	return r.capacity - r.used()
}

// isEmpty reports whether the ring held no frames as of the last load of
// both indices. A true result means a subsequent pop from the same
// thread will return false unless a push intervenes.
func (r *Ring) isEmpty() bool {
	return r.used() == 0
}

// close releases the Ring Core's backing Region.
func (r *Ring) close() error {
	return r.region.close()
}

// Package cbuffer provides a lock-free SPSC (Single Producer Single
// Consumer) byte-message queue built on a double-mapped ("magic") ring
// buffer.
//
// A Ring Core's capacity is mapped twice, back to back, into one
// contiguous virtual address range, so any read or write of up to
// capacity bytes starting at any valid offset proceeds linearly, with no
// branch around the wrap point. Producers enqueue opaque, length-prefixed
// byte messages; consumers dequeue them in FIFO order.
//
// # Thread Safety
//
// A channel's Sender and Receiver are each safe for use by exactly one
// goroutine, for their entire lifetime: the producer goroutine owns the
// Sender, the consumer goroutine owns the Receiver. Calling Sender
// methods from more than one goroutine, or Receiver methods from more
// than one goroutine, is a data race. Channel returns exactly one Sender
// and one Receiver; the package does not prevent copying them, and a copy
// shares the same Ring Core, so single-producer, single-consumer use is
// the caller's responsibility.
//
// IMPORTANT: multiple producers or multiple consumers will cause data
// races and are not supported.
//
// # Features
//
//   - Lock-free SPSC implementation using atomic head/tail offsets
//   - Double-mapped Region: push/pop never split a write or read across
//     the ring's wrap point
//   - Non-blocking TryPush/TryPop and blocking-with-backoff Push/Pop
//   - Capacity fixed to one of four page-aligned sizes (64/128/256/512 MiB)
//
// # Basic Usage
//
//	sender, receiver, err := cbuffer.Channel(cbuffer.Buf128M)
//	if err != nil {
//	    // handle OS mapping failure
//	}
//	defer sender.Close()
//	defer receiver.Close()
//
//	// Producer goroutine
//	go func() {
//	    sender.Push([]byte("hello")) // blocks until there is room
//	}()
//
//	// Consumer goroutine
//	receiver.Pop(func(payload []byte) {
//	    fmt.Printf("got %d bytes: %s\n", len(payload), payload)
//	})
//
// The payload passed to a Pop/TryPop callback is a slice borrowed from
// the Region; it is valid only for the duration of the callback. Copy it
// before the callback returns if it needs to outlive that call.
package cbuffer

package cbuffer

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// region is the double-mapped virtual memory backing a Ring Core. Its
// capacity bytes are mapped twice, back to back: mem[:capacity] and
// mem[capacity:] alias the same physical pages, so mem[i] == mem[i+capacity]
// for every i in [0, capacity). A linear read or write of up to capacity
// bytes starting at any offset in [0, capacity) therefore never needs to
// branch around the wrap point.
//
// region is immutable after construction and is released, in its
// entirety, exactly once by close.
type region struct {
	mem      []byte // len(mem) == 2*capacity
	capacity int
}

// newRegion reserves a 2*capacity virtual address range and installs two
// fixed mappings of one shared backing descriptor into it:
//
//  1. Reserve 2*capacity bytes with PROT_NONE so the kernel hands back a
//     base address none of the next steps can collide with.
//  2. Replace [base, base+capacity) with a MAP_FIXED|MAP_SHARED mapping
//     of a shared file descriptor.
//  3. Replace [base+capacity, base+2*capacity) with a MAP_FIXED|MAP_SHARED
//     mapping of the *same* descriptor, so both halves back onto the same
//     physical pages.
//
// If any step fails the whole operation fails and any partially reserved
// range is released before returning.
func newRegion(capacity int) (*region, error) {
	pageSize := unix.Getpagesize()
	if capacity <= 0 || capacity%pageSize != 0 {
		return nil, fmt.Errorf("cbuffer: capacity %d is not a positive multiple of the page size %d: %w", capacity, pageSize, ErrOverflow)
	}

	fd, err := backingFD(capacity)
	if err != nil {
		return nil, fmt.Errorf("cbuffer: create backing store: %w", err)
	}
	defer unix.Close(fd)

	reserve, err := unix.Mmap(-1, 0, 2*capacity, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, &MapError{Op: "mmap(reserve)", Size: 2 * capacity, Err: err}
	}
	base := uintptr(unsafe.Pointer(&reserve[0]))

	if err := mmapFixed(base, capacity, fd); err != nil {
		unix.Munmap(reserve)
		return nil, &MapError{Op: "mmap(primary)", Addr: base, Size: capacity, Err: err}
	}
	if err := mmapFixed(base+uintptr(capacity), capacity, fd); err != nil {
		unix.Munmap(reserve)
		return nil, &MapError{Op: "mmap(mirror)", Addr: base + uintptr(capacity), Size: capacity, Err: err}
	}

	return &region{mem: reserve, capacity: capacity}, nil
}

// backingFD creates a temporary file sized to capacity bytes and unlinks
// it immediately, the portable POSIX stand-in for an anonymous shared
// memory segment (shm_open + shm_unlink, per spec's documented fallback):
// no path survives the process, while the returned descriptor keeps the
// pages alive for both fixed mappings below.
func backingFD(capacity int) (int, error) {
	f, err := os.CreateTemp("", "cbuffer-region-*")
	if err != nil {
		return -1, err
	}
	name := f.Name()
	defer os.Remove(name)
	defer f.Close()

	if err := f.Truncate(int64(capacity)); err != nil {
		return -1, err
	}

	// Dup so the descriptor we hand back outlives f.Close() above.
	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return -1, err
	}
	return fd, nil
}

// mmapFixed installs a MAP_FIXED|MAP_SHARED mapping of fd at addr.
// golang.org/x/sys/unix's Mmap wrapper always lets the kernel choose the
// address, so the fixed-address replacement mapping is issued directly
// via the raw mmap(2) syscall.
func mmapFixed(addr uintptr, length int, fd int) error {
	_, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, uintptr(length),
		uintptr(unix.PROT_READ|unix.PROT_WRITE),
		uintptr(unix.MAP_FIXED|unix.MAP_SHARED), uintptr(fd), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// close releases the full 2*capacity range in a single munmap. Failure
// here is fatal: there is no reasonable recovery from a kernel refusing
// to unmap memory it just handed out.
func (r *region) close() error {
	if err := unix.Munmap(r.mem); err != nil {
		panic(fmt.Sprintf("cbuffer: munmap(%p, %d) failed: %v", &r.mem[0], 2*r.capacity, err))
	}
	return nil
}

// at returns a linear length-byte view starting at logical offset o. It
// is valid for any o in [0, capacity) and any length <= capacity, even
// when o+length crosses the wrap point, because of the double mapping.
func (r *region) at(o, length int) []byte {
	return r.mem[o : o+length : o+length]
}

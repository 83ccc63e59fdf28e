package datalog

import (
	"io"
	"sort"
	"time"
)

// Collection keeps records sorted by ascending time offset. Records with
// equal offsets stay in insertion order. A record's offset must not change
// while it is in a collection; remove it, edit it and add it again.
type Collection[T Record] struct {
	owner Owner
	items []T
}

func newCollection[T Record](owner Owner, capacity int) *Collection[T] {
	return &Collection[T]{owner: owner, items: make([]T, 0, capacity)}
}

// Add inserts r after every record with an offset less than or equal to
// its own and points r at the collection's owner. It panics if r is nil.
func (c *Collection[T]) Add(r T) {
	if isNil(r) {
		panic("datalog: nil record added to collection")
	}
	at := r.Time()
	i := sort.Search(len(c.items), func(i int) bool {
		return c.items[i].Time() > at
	})

	var zero T
	c.items = append(c.items, zero)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = r
	r.setOwner(c.owner)
}

// Remove deletes r and clears its owner. It reports whether r was present.
func (c *Collection[T]) Remove(r T) bool {
	i := c.indexOf(r)
	if i < 0 {
		return false
	}
	copy(c.items[i:], c.items[i+1:])
	var zero T
	c.items[len(c.items)-1] = zero
	c.items = c.items[:len(c.items)-1]
	r.setOwner(nil)
	return true
}

// Clear removes every record, clearing each owner.
func (c *Collection[T]) Clear() {
	for i, r := range c.items {
		r.setOwner(nil)
		var zero T
		c.items[i] = zero
	}
	c.items = c.items[:0]
}

// Contains reports whether r is in the collection.
func (c *Collection[T]) Contains(r T) bool {
	return c.indexOf(r) >= 0
}

func (c *Collection[T]) Len() int {
	return len(c.items)
}

// At returns the record at position i in offset order.
func (c *Collection[T]) At(i int) T {
	return c.items[i]
}

// All returns a snapshot of the records in offset order. Later changes to
// the collection do not affect the returned slice.
func (c *Collection[T]) All() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Duration returns the offset of the last record, or zero when empty.
func (c *Collection[T]) Duration() time.Duration {
	if len(c.items) == 0 {
		return 0
	}
	return c.items[len(c.items)-1].Time()
}

func (c *Collection[T]) indexOf(r T) int {
	if isNil(r) {
		return -1
	}
	// equal offsets are contiguous, so only that run needs scanning
	at := r.Time()
	i := sort.Search(len(c.items), func(i int) bool {
		return c.items[i].Time() >= at
	})
	for ; i < len(c.items) && c.items[i].Time() == at; i++ {
		if any(c.items[i]) == any(r) {
			return i
		}
	}
	return -1
}

// save renumbers numbered records 0..N-1 in current order and writes each
// one as size bytes.
func (c *Collection[T]) save(w io.Writer, size int) (int64, error) {
	var total int64
	for i, r := range c.items {
		if n, ok := any(r).(numbered); ok {
			n.setNumber(uint32(i))
		}
		buf, err := r.encode(size)
		if err != nil {
			return total, err
		}
		n, err := w.Write(buf)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func isNil[T Record](r T) bool {
	var zero T
	return any(r) == any(zero)
}

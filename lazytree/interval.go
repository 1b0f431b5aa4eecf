// Copyright (c) 2024 The treesuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lazytree

// bucket is a single array of keys in an interval's chain.  Buckets are
// never split, only appended to and spliced between chains, so the number
// of buckets in the whole tree is bounded by the number of interval
// constructions rather than the number of keys.
type bucket[T any] struct {
	keys []T
	next *bucket[T]
}

// interval represents a bag of keys whose maximum and minimum are known
// but whose internal order is not.  It is the unit of bulk movement in a
// gap: a query-driven restructure shuffles whole intervals between gaps
// and merges neighbors with a pointer splice.
//
// Intervals require a linked structure for O(1) merging, but a chain of
// single keys would spend one pointer per key and forfeit the tree's
// O(min(n, q log n)) pointer bound.  Chaining arrays instead lets batched
// inserts and built intervals share buckets, so n inserts landing in the
// same interval cost O(1) chain pointers.
type interval[T any] struct {
	t    *Tree[T]
	head *bucket[T]
	tail *bucket[T]
	size int
	max  T
	min  T
}

// newInterval creates an interval that takes ownership of the passed key
// slice as its only bucket.  The max and min fields are left as zero
// values when the slice is empty; callers must treat them as undefined
// until the interval is non-empty.
func newInterval[T any](t *Tree[T], keys []T) *interval[T] {
	in := &interval[T]{t: t, size: len(keys)}
	if len(keys) == 0 {
		return in
	}

	b := &bucket[T]{keys: keys}
	in.head = b
	in.tail = b
	in.max = keys[0]
	in.min = keys[0]
	for _, k := range keys[1:] {
		if t.keyLess(in.max, k) {
			in.max = k
		}
		if t.keyLess(k, in.min) {
			in.min = k
		}
	}
	return in
}

// newIntervalSingle creates an interval holding a single key.
func newIntervalSingle[T any](t *Tree[T], key T) *interval[T] {
	b := &bucket[T]{keys: []T{key}}
	return &interval[T]{t: t, head: b, tail: b, size: 1, max: key, min: key}
}

// empty returns whether the interval holds no keys.
func (in *interval[T]) empty() bool {
	return in.size == 0
}

// insertOne appends a single key to the interval and updates the boundary
// keys in O(1).  Which bucket receives the key does not matter for
// correctness; the front bucket avoids a chain walk.
//
// The interval must not be empty.
func (in *interval[T]) insertOne(key T) {
	in.head.keys = append(in.head.keys, key)
	if in.t.keyLess(in.max, key) {
		in.max = key
	}
	if in.t.keyLess(key, in.min) {
		in.min = key
	}
	in.size++
}

// mergeFrom splices the other interval's chain onto the end of this one
// and leaves other empty.  The cost is O(1) regardless of the sizes
// involved.  Both intervals must be non-empty, and other must not be used
// again except to observe that it is empty.
func (in *interval[T]) mergeFrom(other *interval[T]) {
	in.size += other.size
	if in.t.keyLess(in.max, other.max) {
		in.max = other.max
	}
	if in.t.keyLess(other.min, in.min) {
		in.min = other.min
	}

	in.tail.next = other.head
	in.tail = other.tail

	other.head = nil
	other.tail = nil
	other.size = 0
}

// sample returns a key drawn uniformly at random from the interval.  The
// draw walks the bucket chain, so it stays correct when bucket sizes are
// wildly uneven.  The interval must not be empty.
func (in *interval[T]) sample() T {
	idx := in.t.rng.Intn(in.size)
	for b := in.head; ; b = b.next {
		if idx < len(b.keys) {
			return b.keys[idx]
		}
		idx -= len(b.keys)
	}
}

// pivot partitions the interval's keys around p into two fresh intervals:
// keys less than p in the first, keys greater than p in the second.  Each
// key equal to p flips a fair coin, so a run of duplicates still splits
// by a constant fraction in expectation no matter how adversarial the
// input order is.  The receiver is left untouched.
func (in *interval[T]) pivot(p T) (*interval[T], *interval[T]) {
	var lesser, greater []T
	for b := in.head; b != nil; b = b.next {
		for _, k := range b.keys {
			switch {
			case in.t.keyLess(k, p):
				lesser = append(lesser, k)
			case in.t.keyLess(p, k):
				greater = append(greater, k)
			case in.t.rng.Intn(2) == 0:
				lesser = append(lesser, k)
			default:
				greater = append(greater, k)
			}
		}
	}
	return newInterval(in.t, lesser), newInterval(in.t, greater)
}

// membership linearly scans the interval for a key that compares equal to
// the passed key.  It is only invoked after the gap's locator has already
// narrowed the query to this interval.
func (in *interval[T]) membership(key T) bool {
	for b := in.head; b != nil; b = b.next {
		for _, k := range b.keys {
			if in.t.keyEqual(k, key) {
				return true
			}
		}
	}
	return false
}

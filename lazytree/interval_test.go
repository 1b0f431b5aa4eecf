// Copyright (c) 2024 The treesuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lazytree

import (
	"testing"
)

// newTestTree returns a tree over ints with a deterministic seed for use as
// the comparator and randomness context of white-box interval and gap
// tests.
func newTestTree() *Tree[int] {
	tr := New[int]()
	tr.Seed(42)
	return tr
}

// collectKeys returns every key in the interval by walking its chain.
func collectKeys(in *interval[int]) []int {
	var keys []int
	for b := in.head; b != nil; b = b.next {
		keys = append(keys, b.keys...)
	}
	return keys
}

// numBuckets returns the length of the interval's bucket chain.
func numBuckets(in *interval[int]) int {
	var n int
	for b := in.head; b != nil; b = b.next {
		n++
	}
	return n
}

// checkIntervalConsistency ensures the interval's cached size, max, and min
// agree with its actual contents.
func checkIntervalConsistency(t *testing.T, in *interval[int]) {
	t.Helper()

	keys := collectKeys(in)
	if len(keys) != in.size {
		t.Fatalf("interval size mismatch - got %d, want %d", in.size,
			len(keys))
	}
	if in.size == 0 {
		return
	}
	wantMax, wantMin := keys[0], keys[0]
	for _, k := range keys[1:] {
		if k > wantMax {
			wantMax = k
		}
		if k < wantMin {
			wantMin = k
		}
	}
	if in.max != wantMax {
		t.Fatalf("interval max mismatch - got %d, want %d", in.max,
			wantMax)
	}
	if in.min != wantMin {
		t.Fatalf("interval min mismatch - got %d, want %d", in.min,
			wantMin)
	}
}

// TestIntervalInsertOne ensures single-key inserts maintain the size and
// boundary keys.
func TestIntervalInsertOne(t *testing.T) {
	t.Parallel()

	tr := newTestTree()
	in := newIntervalSingle(tr, 50)
	for _, k := range []int{10, 90, 50, 30, 70} {
		in.insertOne(k)
		checkIntervalConsistency(t, in)
	}
	if in.size != 6 {
		t.Fatalf("unexpected size - got %d, want 6", in.size)
	}
	if in.max != 90 || in.min != 10 {
		t.Fatalf("unexpected bounds - got [%d, %d], want [10, 90]",
			in.min, in.max)
	}

	// All keys went into the front bucket, so the chain must not have
	// grown.
	if got := numBuckets(in); got != 1 {
		t.Fatalf("unexpected bucket count - got %d, want 1", got)
	}
}

// TestIntervalMerge ensures merging splices the chains without copying and
// empties the source interval.
func TestIntervalMerge(t *testing.T) {
	t.Parallel()

	tr := newTestTree()
	a := newInterval(tr, []int{5, 1, 3})
	b := newInterval(tr, []int{9, 7})
	c := newIntervalSingle(tr, 11)

	a.mergeFrom(b)
	checkIntervalConsistency(t, a)
	if !b.empty() {
		t.Fatalf("source interval not emptied by merge")
	}
	if got := numBuckets(a); got != 2 {
		t.Fatalf("unexpected bucket count - got %d, want 2", got)
	}

	a.mergeFrom(c)
	checkIntervalConsistency(t, a)
	if got := numBuckets(a); got != 3 {
		t.Fatalf("unexpected bucket count - got %d, want 3", got)
	}
	if a.size != 6 {
		t.Fatalf("unexpected size - got %d, want 6", a.size)
	}
	if a.max != 11 || a.min != 1 {
		t.Fatalf("unexpected bounds - got [%d, %d], want [1, 11]",
			a.min, a.max)
	}
}

// TestIntervalSample ensures sampling reaches every key even when the
// bucket sizes are wildly uneven.
func TestIntervalSample(t *testing.T) {
	t.Parallel()

	tr := newTestTree()

	// Build an interval whose chain is one large bucket followed by two
	// tiny ones.
	large := make([]int, 100)
	for i := range large {
		large[i] = i
	}
	in := newInterval(tr, large)
	in.mergeFrom(newIntervalSingle(tr, 100))
	in.mergeFrom(newInterval(tr, []int{101, 102}))

	// Sampling many times must eventually return keys from every bucket,
	// including the trailing ones a draw biased to the first bucket would
	// miss.
	seen := make(map[int]bool)
	for i := 0; i < 20000; i++ {
		seen[in.sample()] = true
	}
	for _, want := range []int{0, 99, 100, 101, 102} {
		if !seen[want] {
			t.Fatalf("sample never returned key %d", want)
		}
	}
}

// TestIntervalPivot ensures pivoting partitions strictly by the comparator
// and scatters equal keys across both outputs.
func TestIntervalPivot(t *testing.T) {
	t.Parallel()

	tr := newTestTree()
	keys := []int{8, 3, 5, 5, 9, 1, 5, 7, 5, 2, 5, 5, 5, 5}
	in := newInterval(tr, append([]int(nil), keys...))

	lesser, greater := in.pivot(5)
	checkIntervalConsistency(t, lesser)
	checkIntervalConsistency(t, greater)

	if lesser.size+greater.size != len(keys) {
		t.Fatalf("pivot lost keys - got %d, want %d",
			lesser.size+greater.size, len(keys))
	}
	for _, k := range collectKeys(lesser) {
		if k > 5 {
			t.Fatalf("key %d above pivot landed in lesser output", k)
		}
	}
	for _, k := range collectKeys(greater) {
		if k < 5 {
			t.Fatalf("key %d below pivot landed in greater output",
				k)
		}
	}

	// With eight copies of the pivot key and a fair coin, both sides must
	// see at least one copy over repeated pivots.  A deterministic
	// tie-break would park every copy on one side.
	var leftEquals, rightEquals int
	for i := 0; i < 100; i++ {
		l, g := in.pivot(5)
		for _, k := range collectKeys(l) {
			if k == 5 {
				leftEquals++
			}
		}
		for _, k := range collectKeys(g) {
			if k == 5 {
				rightEquals++
			}
		}
	}
	if leftEquals == 0 || rightEquals == 0 {
		t.Fatalf("equal keys never split - left %d, right %d",
			leftEquals, rightEquals)
	}
}

// TestIntervalMembership ensures the linear scan honors comparator derived
// equality.
func TestIntervalMembership(t *testing.T) {
	t.Parallel()

	tr := newTestTree()
	in := newInterval(tr, []int{4, 8, 15, 16, 23, 42})
	for _, k := range []int{4, 8, 15, 16, 23, 42} {
		if !in.membership(k) {
			t.Fatalf("membership: key %d missing", k)
		}
	}
	for _, k := range []int{0, 5, 100} {
		if in.membership(k) {
			t.Fatalf("membership: unexpected key %d", k)
		}
	}
}

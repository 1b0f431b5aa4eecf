// Copyright (c) 2024 The treesuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lazytree

import (
	"cmp"
	"math/rand"

	"github.com/treesuite/lazytree/splay"
)

// defaultSeed seeds the pseudo-random source of new trees.  A fixed seed
// keeps runs reproducible; callers that want varied runs reseed with
// Seed.  Uniform bits are all the structure needs, so math/rand
// suffices.
const defaultSeed = 1

// LessFunc defines the strict weak ordering over keys.  It must return
// whether a sorts before b.  Key equality is derived from it: two keys
// are equal when neither sorts before the other.
type LessFunc[T any] func(a, b T) bool

// Stats holds operation counters maintained by a tree.  The counters
// exist to make the structure's laziness observable: a pure insertion
// workload should show comparisons linear in the number of keys, and
// repeating a query should show locator probe counts dropping to a small
// constant.
type Stats struct {
	// Comparisons is the total number of key comparator invocations.
	Comparisons uint64

	// LocatorProbes is the total number of interval probes performed
	// by gap locators across all locate calls.
	LocatorProbes uint64

	// Restructures is the number of gap restructure operations, which
	// equals the number of queries answered against non-empty trees.
	Restructures uint64

	// IntervalMerges is the number of interval merge splices performed
	// by rebalancing.
	IntervalMerges uint64
}

// Tree represents a lazy search tree.  See the package documentation for
// an overview of the structure.
//
// Tree is not safe for concurrent use.  Contains restructures the tree,
// so even concurrent readers race.
type Tree[T any] struct {
	less  LessFunc[T]
	gaps  *splay.Tree[*gap[T]]
	size  int
	rng   *rand.Rand
	stats Stats
}

// New returns an empty tree over a naturally ordered key type, comparing
// keys with the built-in less-than operator.
func New[T cmp.Ordered]() *Tree[T] {
	return NewWithLess[T](func(a, b T) bool { return a < b })
}

// NewWithLess returns an empty tree ordered by the passed comparator.
// The comparator is the sole source of key ordering and equality
// throughout the structure.
func NewWithLess[T any](less LessFunc[T]) *Tree[T] {
	t := &Tree[T]{
		less: less,
		rng:  rand.New(rand.NewSource(defaultSeed)),
	}
	t.gaps = splay.New[*gap[T]](t.gapLess)
	return t
}

// Seed reseeds the tree's pseudo-random source.  The source drives pivot
// sampling and equal-key tie-breaking; reseeding changes which internal
// shapes arise but never changes any query answer.
func (t *Tree[T]) Seed(seed int64) {
	t.rng = rand.New(rand.NewSource(seed))
}

// keyLess invokes the key comparator and counts the invocation.  All key
// comparisons in the package funnel through here.
func (t *Tree[T]) keyLess(a, b T) bool {
	t.stats.Comparisons++
	return t.less(a, b)
}

// keyEqual derives key equality from the comparator.
func (t *Tree[T]) keyEqual(a, b T) bool {
	return !t.keyLess(a, b) && !t.keyLess(b, a)
}

// gapLess orders gaps lexicographically on (max key, min key).  Live gaps
// cover disjoint key ranges, so this is a total order over residents of
// the ordering structure.  Restructuring replaces gaps wholesale.  An
// insert routed by LowerBoundOrLast may lower the receiving gap's min, or
// raise the last gap's max, but only to a key lying between that gap and
// its neighbors, so it never reorders the gap.
//
// A gap of size zero is the routing probe built by Contains.  It sorts
// ahead of every resident gap with the same max key, so the lookup lands
// on the first gap whose max reaches the probed key.
func (t *Tree[T]) gapLess(a, b *gap[T]) bool {
	aMax, bMax := a.max(), b.max()
	if t.keyLess(aMax, bMax) {
		return true
	}
	if !t.keyLess(bMax, aMax) {
		if a.size == 0 || b.size == 0 {
			return a.size == 0 && b.size != 0
		}
		return t.keyLess(a.min(), b.min())
	}
	return false
}

// Len returns the number of keys stored in the tree.  Duplicate keys all
// count.
func (t *Tree[T]) Len() int {
	return t.size
}

// IsEmpty returns whether the tree holds no keys.
func (t *Tree[T]) IsEmpty() bool {
	return t.size == 0
}

// Stats returns a copy of the tree's operation counters.
func (t *Tree[T]) Stats() Stats {
	return t.stats
}

// ResetStats zeroes the operation counters.
func (t *Tree[T]) ResetStats() {
	t.stats = Stats{}
}

// GapCount returns the number of gaps currently held by the ordering
// structure.
func (t *Tree[T]) GapCount() int {
	return t.gaps.Len()
}

// IntervalCount returns the total number of intervals across all gaps.
// After n inserts and q queries it is O(min(n, q log n)), which is the
// pointer bound the interval chains exist to preserve.
func (t *Tree[T]) IntervalCount() int {
	var total int
	t.gaps.ForEach(func(g *gap[T]) bool {
		total += len(g.intervals)
		return true
	})
	return total
}

// Insert adds the key to the tree.  No comparisons against other stored
// keys are spent beyond routing the key to its gap and interval, so bulk
// loading without queries runs in linear time overall.
func (t *Tree[T]) Insert(key T) {
	if t.size == 0 {
		t.gaps.Insert(newGapSingle(t, key))
	} else {
		// Route through a single-key probe gap.  LowerBoundOrLast
		// hands back the resident gap itself, which is mutated in
		// place; the insert cannot change the gap's position in the
		// ordering structure.
		g, _ := t.gaps.LowerBoundOrLast(newGapSingle(t, key))
		g.insert(key)
	}
	t.size++
}

// Contains reports whether at least one key comparing equal to the passed
// key is present.
//
// Answering the query also pays down sorting debt: the gap covering the
// key is carved into two finer gaps around it, so later queries near the
// same key get cheaper.  The ordering key of a resident gap must never be
// mutated, so replacement is performed as erase followed by insert of the
// non-empty outputs.
func (t *Tree[T]) Contains(key T) bool {
	if t.size == 0 {
		return false
	}

	probe := &gap[T]{t: t, intervals: []*interval[T]{
		newIntervalSingle(t, key)}}
	g, _ := t.gaps.LowerBoundOrLast(probe)
	result := g.membership(key)

	lesser, greater := g.restructure(key)
	t.gaps.Erase(g)
	if !lesser.empty() {
		t.gaps.Insert(lesser)
	}
	if !greater.empty() {
		t.gaps.Insert(greater)
	}
	return result
}

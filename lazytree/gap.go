// Copyright (c) 2024 The treesuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lazytree

// gap represents a contiguous region of the keyspace whose internal order
// is not yet fully known.  It holds a loosely sorted sequence of
// intervals: every key in intervals[i] sorts no later than every key in
// intervals[i+1], but keys within an interval are unordered.  Gaps are
// the unit of query-driven restructuring; a membership query splits its
// gap into two finer gaps around the queried key.
type gap[T any] struct {
	t *Tree[T]

	// intervals is ordered by the weak max rule.  No interval in a live
	// gap is empty.
	intervals []*interval[T]

	size int

	// lastLeftIdx caches the interval index where the previous locate
	// ended, seeding the next locate's exponential probe.  Rebalance
	// also resets it to the boundary between the left-refined prefix
	// and the interior.
	lastLeftIdx int
}

// newGapSingle creates a gap holding a single interval with a single key.
func newGapSingle[T any](t *Tree[T], key T) *gap[T] {
	return &gap[T]{
		t:         t,
		intervals: []*interval[T]{newIntervalSingle(t, key)},
		size:      1,
	}
}

// newGap creates a gap from a sequence of intervals, dropping any empty
// ones, and rebalances it.  The resulting gap may itself be empty, in
// which case the caller must not place it in the gap ordering structure.
func newGap[T any](t *Tree[T], intervals []*interval[T]) *gap[T] {
	g := &gap[T]{t: t}
	for _, in := range intervals {
		if !in.empty() {
			g.intervals = append(g.intervals, in)
			g.size += in.size
		}
	}
	g.rebalance()
	return g
}

// empty returns whether the gap holds no keys.
func (g *gap[T]) empty() bool {
	return g.size == 0
}

// max returns the largest key in the gap.  The gap must not be empty.
func (g *gap[T]) max() T {
	return g.intervals[len(g.intervals)-1].max
}

// min returns the smallest key in the gap.  The gap must not be empty.
func (g *gap[T]) min() T {
	return g.intervals[0].min
}

// locate returns the index of the smallest interval whose max compares
// greater than or equal to key, or the last index when key is greater
// than everything stored.  The search probes exponentially outward from
// the cached index of the previous call and then binary searches the
// bracketed range, so it costs O(log d) where d is the distance from the
// last locate rather than O(log m).  The cache is refreshed with the
// returned index.
//
// The gap must not be empty.
func (g *gap[T]) locate(key T) int {
	m := len(g.intervals)
	lo := g.lastLeftIdx

	g.t.stats.LocatorProbes++
	init := !g.t.keyLess(g.intervals[lo].max, key)
	mult := 1
	if init {
		mult = -1
	}

	// Double the offset from the cached index until the comparison
	// outcome flips or the probe runs off either end.  The bracket is
	// clamped to the virtual sentinels at -1 and m.
	var hi int
	for i := uint(0); ; i++ {
		hi = lo + mult*(1<<i)
		if hi < 0 {
			hi = -1
			break
		}
		if hi >= m {
			hi = m
			break
		}
		g.t.stats.LocatorProbes++
		if init != !g.t.keyLess(g.intervals[hi].max, key) {
			break
		}
	}

	// Binary search the bracket.  lo always holds an index whose
	// comparison outcome matches the initial probe; hi holds one that
	// differs or sits on a sentinel.
	for {
		d := hi - lo
		if d < 0 {
			d = -d
		}
		if d <= 1 {
			idx := hi
			if init || hi == m {
				idx = lo
			}
			g.lastLeftIdx = idx
			return idx
		}

		mid := (lo + hi) / 2
		g.t.stats.LocatorProbes++
		if init == !g.t.keyLess(g.intervals[mid].max, key) {
			lo = mid
		} else {
			hi = mid
		}
	}
}

// insert files the key into the interval covering it.
func (g *gap[T]) insert(key T) {
	g.intervals[g.locate(key)].insertOne(key)
	g.size++
}

// membership reports whether a key comparing equal to the passed key is
// present in the gap.  Only the single located interval is scanned.
func (g *gap[T]) membership(key T) bool {
	return g.intervals[g.locate(key)].membership(key)
}

// split recursively pivots the interval around uniformly sampled keys,
// refining toward the left edge when recurseLeft is set and toward the
// right edge otherwise.  The returned sequence is ordered and its sizes
// decay geometrically toward the refined edge in expectation.  Empty
// fragments are dropped.
func (g *gap[T]) split(in *interval[T], recurseLeft bool) []*interval[T] {
	if in.empty() {
		return nil
	}
	if in.size == 1 {
		return []*interval[T]{in}
	}

	p := in.sample()
	lesser, greater := in.pivot(p)

	if recurseLeft {
		return append(g.split(lesser, true), greater)
	}
	return append([]*interval[T]{lesser}, g.split(greater, false)...)
}

// restructure carves the gap into two finer gaps around the queried key:
// one holding every key that pivoted below it and one holding every key
// that pivoted above it.  The located interval is pivoted on the key
// itself and both halves are recursively split toward the query, so
// follow-up queries near this key land in small intervals.  Untouched
// intervals are moved wholesale.
//
// Either returned gap may be empty; the caller drops empty gaps instead
// of placing them in the ordering structure.  The receiver must be
// discarded after the call.
func (g *gap[T]) restructure(key T) (*gap[T], *gap[T]) {
	g.t.stats.Restructures++

	idx := g.locate(key)
	log.Tracef("restructuring gap of %d keys across %d intervals "+
		"around interval %d", g.size, len(g.intervals), idx)

	pivotLesser, pivotGreater := g.intervals[idx].pivot(key)

	lesser := make([]*interval[T], 0, idx+1)
	lesser = append(lesser, g.intervals[:idx]...)
	lesser = append(lesser, g.split(pivotLesser, false)...)

	greater := g.split(pivotGreater, true)
	greater = append(greater, g.intervals[idx+1:]...)

	// Either side may contain empty intervals at this point.  The gap
	// constructor keeps only the non-empty ones.
	return newGap(g.t, lesser), newGap(g.t, greater)
}

// rebalance merges adjacent intervals inward from both ends until the
// interval sizes decay geometrically outward from the midpoint, which
// bounds the interval count at O(log(gap size)).  The scan maintains
// nOut, the total size already emitted toward the near end, and nIn, the
// size of the unscanned interior, and enforces two conditions:
//
//	(A) stop emitting once nOut plus the current interval would reach
//	    the interior remaining beyond the next interval, which marks
//	    the crossover to the far side;
//	(B) while scanning, fold the next interval into the current one
//	    whenever nOut has grown to cover both.
//
// The forward boundary becomes the new locator hint.  No interval may be
// empty when rebalance is called.
func (g *gap[T]) rebalance() {
	g.lastLeftIdx = g.mergeForward()
	g.mergeBackward()
}

// mergeForward runs the left-to-right merge pass and returns the index at
// which condition (A) stopped it.
func (g *gap[T]) mergeForward() int {
	ivs := g.intervals
	nOut := 0
	i := 0
	for i+1 < len(ivs) {
		cur, next := ivs[i], ivs[i+1]
		nIn := g.size - cur.size - nOut
		if nOut+cur.size >= nIn-next.size {
			break
		}

		if nOut >= cur.size+next.size {
			log.Tracef("merging interval of %d keys into left "+
				"neighbor of %d keys", next.size, cur.size)
			cur.mergeFrom(next)
			ivs = append(ivs[:i+1], ivs[i+2:]...)
			g.t.stats.IntervalMerges++
		} else {
			nOut += cur.size
			i++
		}
	}
	g.intervals = ivs
	return i
}

// mergeBackward runs the mirrored right-to-left pass over what the
// forward pass left behind.  Its removals all happen on the right side of
// the forward boundary, so the locator hint recorded by mergeForward
// stays valid.
func (g *gap[T]) mergeBackward() {
	ivs := g.intervals
	nOut := 0
	j := len(ivs) - 1
	for j >= 1 {
		cur, next := ivs[j], ivs[j-1]
		nIn := g.size - cur.size - nOut
		if nOut+cur.size >= nIn-next.size {
			break
		}

		if nOut >= cur.size+next.size {
			log.Tracef("merging interval of %d keys into right "+
				"neighbor of %d keys", next.size, cur.size)
			cur.mergeFrom(next)
			copy(ivs[j-1:], ivs[j:])
			ivs = ivs[:len(ivs)-1]
			j--
			g.t.stats.IntervalMerges++
		} else {
			nOut += cur.size
			j--
		}
	}
	g.intervals = ivs
}

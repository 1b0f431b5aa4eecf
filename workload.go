// Copyright (c) 2024 The treesuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/btree"

	"github.com/treesuite/lazytree/lazytree"
)

// oracleDegree is the branching factor for the b-tree used as the ordered
// set oracle.  The value matters only for oracle performance.
const oracleDegree = 32

// newOracle returns an empty library ordered set used to cross-check every
// membership answer the lazy search tree produces.
func newOracle() *btree.BTreeG[int] {
	return btree.NewG[int](oracleDegree, func(a, b int) bool {
		return a < b
	})
}

// workloadFunc drives one end-to-end scenario and returns an error when any
// answer or structural expectation is violated.
type workloadFunc func(cfg *config) error

// workloads maps workload names to their drivers.  The names here must stay
// in sync with knownWorkloads in config.go.
var workloads = map[string]workloadFunc{
	"reverse":    runReverse,
	"priority":   runPriority,
	"sparse":     runSparse,
	"duplicates": runDuplicates,
	"mixed":      runMixed,
}

// runWorkloads runs the configured workload, or every known workload when
// "all" was requested, stopping at the first failure.
func runWorkloads(cfg *config) error {
	names := []string{cfg.Workload}
	if cfg.Workload == "all" {
		names = knownWorkloads
	}

	for _, name := range names {
		bnchLog.Infof("Running workload %q with %d keys, %d queries, "+
			"seed %d", name, cfg.Keys, cfg.Queries, cfg.Seed)
		if err := workloads[name](cfg); err != nil {
			return fmt.Errorf("workload %q: %v", name, err)
		}
	}
	return nil
}

// reportStats emits the operation counters and structural totals of the
// passed tree on the benchmark logger.
func reportStats(name string, tr *lazytree.Tree[int]) {
	stats := tr.Stats()
	bnchLog.Infof("%s: %d keys across %d gaps and %d intervals -- "+
		"%d comparisons, %d locator probes, %d restructures, %d merges",
		name, tr.Len(), tr.GapCount(), tr.IntervalCount(),
		stats.Comparisons, stats.LocatorProbes, stats.Restructures,
		stats.IntervalMerges)
	bnchLog.Debugf("%s counters: %v", name, newLogClosure(func() string {
		return spew.Sdump(stats)
	}))
}

// runReverse loads keys in descending order without querying, which must
// leave the structure completely unsorted, and then issues a single query
// that forces the first restructure.
func runReverse(cfg *config) error {
	n := cfg.Keys
	tr := lazytree.New[int]()
	tr.Seed(cfg.Seed)

	for i := n; i >= 1; i-- {
		tr.Insert(i)
	}
	if tr.Len() != n {
		return fmt.Errorf("unexpected size after inserts -- got %d, "+
			"want %d", tr.Len(), n)
	}

	// No query has been issued, so no sorting work may have occurred:
	// everything sits in a single interval of a single gap.
	if gaps := tr.GapCount(); gaps != 1 {
		return fmt.Errorf("pure inserts built %d gaps, want 1", gaps)
	}
	if intervals := tr.IntervalCount(); intervals != 1 {
		return fmt.Errorf("pure inserts built %d intervals, want 1",
			intervals)
	}

	if !tr.Contains(n / 2) {
		return fmt.Errorf("key %d not found after insertion", n/2)
	}
	if gaps := tr.GapCount(); gaps < 2 {
		return fmt.Errorf("query did not split the gap -- %d gaps",
			gaps)
	}

	reportStats("reverse", tr)
	return nil
}

// runPriority loads shuffled keys and then queries every key in ascending
// order, the priority-queue pattern that forces the structure into its full
// O(n log n) sorting worst case.
func runPriority(cfg *config) error {
	n := cfg.Keys
	rng := rand.New(rand.NewSource(cfg.Seed))
	tr := lazytree.New[int]()
	tr.Seed(cfg.Seed)

	for _, k := range rng.Perm(n) {
		tr.Insert(k + 1)
	}

	for i := 1; i <= n; i++ {
		if !tr.Contains(i) {
			return fmt.Errorf("key %d missing during ascending "+
				"scan", i)
		}
	}
	if tr.Len() != n {
		return fmt.Errorf("queries changed the size -- got %d, want %d",
			tr.Len(), n)
	}
	if tr.Contains(0) || tr.Contains(n+1) {
		return fmt.Errorf("out of range key reported present")
	}

	reportStats("priority", tr)
	return nil
}

// runSparse loads random keys and issues only a handful of queries, the
// regime where a lazy search tree performs asymptotically less work than a
// balanced search tree.  The comparison count is checked against a generous
// n log q budget.
func runSparse(cfg *config) error {
	n, q := cfg.Keys, cfg.Queries
	rng := rand.New(rand.NewSource(cfg.Seed))
	tr := lazytree.New[int]()
	tr.Seed(cfg.Seed)
	oracle := newOracle()

	keys := make([]int, n)
	for i := range keys {
		keys[i] = rng.Int()
		tr.Insert(keys[i])
		oracle.ReplaceOrInsert(keys[i])
	}

	for i := 0; i < q; i++ {
		// Probe present and absent keys alternately.
		key := keys[rng.Intn(n)]
		if i%2 == 1 {
			key = rng.Int()
		}
		if got, want := tr.Contains(key), oracle.Has(key); got != want {
			return fmt.Errorf("membership mismatch for %d -- got "+
				"%v, want %v", key, got, want)
		}
	}

	// The few-query regime must stay near linear overall.  The budget
	// constant is deliberately loose; this guards against accidentally
	// sorting everything, not against modest constant factors.
	stats := tr.Stats()
	budget := 16 * float64(n) * math.Log2(float64(q)+2)
	if q > 0 && float64(stats.Comparisons) > budget {
		return fmt.Errorf("comparison count %d exceeds budget %.0f "+
			"for %d inserts and %d queries", stats.Comparisons,
			budget, n, q)
	}

	reportStats("sparse", tr)
	return nil
}

// runDuplicates loads a single repeated key, which collapses the structure
// into one interval, and verifies the randomized equal-key handling keeps
// restructuring terminating and consistent.
func runDuplicates(cfg *config) error {
	n := cfg.Keys
	const dupKey = 7
	tr := lazytree.New[int]()
	tr.Seed(cfg.Seed)

	for i := 0; i < n; i++ {
		tr.Insert(dupKey)
	}
	if tr.Len() != n {
		return fmt.Errorf("multiset size wrong -- got %d, want %d",
			tr.Len(), n)
	}

	if !tr.Contains(dupKey) {
		return fmt.Errorf("duplicated key %d not found", dupKey)
	}
	if tr.Contains(dupKey + 1) {
		return fmt.Errorf("absent key reported present")
	}
	if tr.Len() != n {
		return fmt.Errorf("queries changed the size -- got %d, want %d",
			tr.Len(), n)
	}

	reportStats("duplicates", tr)
	return nil
}

// runMixed drives a uniformly random interleaving of inserts and queries
// against the ordered set oracle.  Every single membership answer must
// match.
func runMixed(cfg *config) error {
	ops := cfg.Keys
	keyspace := cfg.Keys / 2
	if keyspace < 2 {
		keyspace = 2
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	tr := lazytree.New[int]()
	tr.Seed(cfg.Seed)
	oracle := newOracle()

	inserted := 0
	for i := 0; i < ops; i++ {
		key := rng.Intn(keyspace)
		if rng.Intn(2) == 0 {
			tr.Insert(key)
			oracle.ReplaceOrInsert(key)
			inserted++
		} else {
			if got, want := tr.Contains(key), oracle.Has(key); got != want {
				return fmt.Errorf("membership mismatch for %d "+
					"after %d ops -- got %v, want %v", key,
					i, got, want)
			}
		}
	}
	if tr.Len() != inserted {
		return fmt.Errorf("size drifted -- got %d, want %d", tr.Len(),
			inserted)
	}

	reportStats("mixed", tr)
	return nil
}

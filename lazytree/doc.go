// Copyright (c) 2024 The treesuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package lazytree implements the lazy search tree of Sandlund and Wild, an
ordered dictionary that defers sorting work until queries demand it.

A conventional balanced search tree pays O(log n) comparisons on every
insert whether or not the order it establishes is ever consulted.  A lazy
search tree instead files inserted keys into coarse unsorted buckets and
only refines them when a query arrives, so after n inserts and q queries
the total work is O(min(n log n, n log q + q log n)) comparisons with
O(min(n, q log n)) pointers.  A pure insertion workload therefore runs in
linear time, and the structure gracefully degrades to ordinary search tree
behavior as the query count grows.

The structure is two-level.  The top level is an ordered set of gaps, each
covering a contiguous range of the keyspace whose internal order is still
unknown; it is held in a splay tree so recently queried regions, which are
the likeliest restructuring targets, stay near the root.  Each gap holds a
loosely ordered sequence of intervals, unsorted key bags with known
maximum and minimum, backed by a linked chain of arrays so that merging
two intervals is a pointer splice.  A membership query locates its gap,
scans one interval for the answer, and then carves the gap into two finer
gaps around the queried key, paying down sorting debt exactly where
queries have shown interest.

Keys are compared exclusively through a caller-supplied LessFunc.  Equal
keys are kept with multiset semantics: every copy counts toward Len and
Contains reports true while at least one copy is present.

The package is not safe for concurrent access.  Queries restructure the
tree, so even a read-only workload mutates shared state.
*/
package lazytree

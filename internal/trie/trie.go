// internal/trie/trie.go
package trie

import "sync"

/*
 * Wildcard prefix trie with per-terminal value combination.
 *
 * Patterns are sequences of Symbols: a literal, or the wildcard marker that
 * stands for any single literal at that position. Patterns sharing a shape
 * (same length, same literal/wildcard layout, same literals) end at the same
 * terminal node and their values are merged through the CombineFunc.
 *
 * Search is a single deterministic walk, one node per query literal:
 *   1. literal child for the symbol, if present
 *   2. else the wildcard child, if present
 *   3. else reject
 * The walk never backtracks. A query can therefore miss a pattern that a
 * "wildcard matches anything" reading would accept: after taking a literal
 * edge the wildcard sibling is never revisited. Lookup is O(len(query)).
 *
 * Node children live in two slots (keyed map for literals, one pointer for
 * the wildcard) so literal-over-wildcard precedence is structural and does
 * not depend on map iteration order.
 */

// CombineFunc merges an incoming value into the value stored at a terminal.
// present is false on the first insertion at that terminal, in which case
// existing is the zero value of V.
type CombineFunc[V any] func(existing V, present bool, incoming V) (V, error)

type node[K comparable, V any] struct {
	children map[K]*node[K, V]
	wildcard *node[K, V]
	value    V
	present  bool
}

func newNode[K comparable, V any]() *node[K, V] {
	return &node[K, V]{children: make(map[K]*node[K, V])}
}

// child returns the next node for s, creating it when missing.
func (n *node[K, V]) child(s Symbol[K]) *node[K, V] {
	if s.wild {
		if n.wildcard == nil {
			n.wildcard = newNode[K, V]()
		}
		return n.wildcard
	}
	c, ok := n.children[s.lit]
	if !ok {
		c = newNode[K, V]()
		n.children[s.lit] = c
	}
	return c
}

// step applies the greedy transition for literal k. Returns nil on reject.
func (n *node[K, V]) step(k K) *node[K, V] {
	if c, ok := n.children[k]; ok {
		return c
	}
	return n.wildcard
}

// Trie is safe for concurrent use: Insert takes the write lock, Search the
// read lock.
type Trie[K comparable, V any] struct {
	mu      sync.RWMutex
	root    *node[K, V]
	combine CombineFunc[V]
}

// New creates an empty trie that merges colliding insertions with combine.
func New[K comparable, V any](combine CombineFunc[V]) *Trie[K, V] {
	if combine == nil {
		panic("trie: combine function cannot be nil")
	}
	return &Trie[K, V]{
		root:    newNode[K, V](),
		combine: combine,
	}
}

// Insert stores value under pattern, combining with any value already there.
// Nodes along the path are created before combine runs, so when combine
// fails the path stays linked, the stored value is left unchanged and the
// error is returned as is.
func (t *Trie[K, V]) Insert(pattern []Symbol[K], value V) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.root
	for _, s := range pattern {
		n = n.child(s)
	}

	combined, err := t.combine(n.value, n.present, value)
	if err != nil {
		return err
	}
	n.value = combined
	n.present = true
	return nil
}

// Search walks query from the root with the greedy literal-then-wildcard
// rule and returns the value at the node reached. The bool is false when the
// walk is rejected or ends on a node no pattern terminates at.
func (t *Trie[K, V]) Search(query []K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.root
	for _, k := range query {
		n = n.step(k)
		if n == nil {
			var zero V
			return zero, false
		}
	}
	return n.value, n.present
}

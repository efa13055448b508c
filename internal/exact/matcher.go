// Package exact maps utterances to rule code by exact token match.
//
// Utterances are tokenized and inserted into a token trie; placeholder
// tokens (QUOTED_STRING_0, NUMBER_1, ...) become wildcards so any value in
// that position matches. Each utterance keeps its most recent targets first.
package exact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sync"

	"github.com/solatis/rulesynth/internal/core/db"
	"github.com/solatis/rulesynth/internal/trie"
	"github.com/solatis/rulesynth/internal/types"
)

// DefaultMaxResults bounds the targets kept per utterance.
const DefaultMaxResults = 5

// ExampleSource lists stored examples.
type ExampleSource interface {
	ListExamples(ctx context.Context) ([]db.Example, error)
}

// Matcher is an exact-match utterance index. Safe for concurrent use.
type Matcher struct {
	trie *trie.Trie[string, []string]

	mu    sync.Mutex
	sum   hash.Hash
	count int
}

// NewMatcher returns an empty matcher keeping up to maxResults targets per
// utterance. maxResults <= 0 selects DefaultMaxResults.
func NewMatcher(maxResults int) *Matcher {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Matcher{
		trie: trie.New[string, []string](boundedPrepend(maxResults)),
		sum:  sha256.New(),
	}
}

// boundedPrepend keeps targets newest first, skipping a repeat of the newest
// and dropping the oldest past max.
func boundedPrepend(max int) trie.CombineFunc[[]string] {
	return func(existing []string, present bool, incoming []string) ([]string, error) {
		if present && len(incoming) == 1 && len(existing) > 0 && existing[0] == incoming[0] {
			return existing, nil
		}
		out, err := trie.PrependCombine(existing, present, incoming)
		if err != nil {
			return nil, err
		}
		if len(out) > max {
			out = out[:max]
		}
		return out, nil
	}
}

// pattern converts tokens to a trie pattern, placeholders becoming wildcards.
func pattern(tokens []string) []trie.Symbol[string] {
	out := make([]trie.Symbol[string], len(tokens))
	for i, tok := range tokens {
		if IsPlaceholder(tok) {
			out[i] = trie.Any[string]()
		} else {
			out[i] = trie.Lit(tok)
		}
	}
	return out
}

// Add indexes target under utterance.
func (m *Matcher) Add(utterance, target string) error {
	tokens := Tokenize(utterance)
	if len(tokens) == 0 {
		return types.ErrEmptyUtterance
	}
	if err := m.trie.Insert(pattern(tokens), []string{target}); err != nil {
		return fmt.Errorf("failed to index %q: %w", utterance, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Length-prefixed so ("ab","c") and ("a","bc") hash differently.
	fmt.Fprintf(m.sum, "%d:%s%d:%s", len(utterance), utterance, len(target), target)
	m.count++
	return nil
}

// Get returns the targets of utterance, newest first.
func (m *Matcher) Get(utterance string) ([]string, bool) {
	tokens := Tokenize(utterance)
	if len(tokens) == 0 {
		return nil, false
	}
	targets, ok := m.trie.Search(tokens)
	if !ok {
		return nil, false
	}
	return append([]string(nil), targets...), true
}

// Load indexes every example from src and returns how many were added.
func (m *Matcher) Load(ctx context.Context, src ExampleSource) (int, error) {
	examples, err := src.ListExamples(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load examples: %w", err)
	}

	n := 0
	for _, ex := range examples {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := m.Add(ex.Utterance, ex.TargetCode); err != nil {
			return n, fmt.Errorf("example %d: %w", ex.ID, err)
		}
		n++
	}
	return n, nil
}

// Len returns the number of indexed examples.
func (m *Matcher) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Fingerprint identifies the sequence of indexed examples.
func (m *Matcher) Fingerprint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return hex.EncodeToString(m.sum.Sum(nil))
}

package trie

// Symbol is one position of an inserted pattern: a literal or the wildcard.
// The wildcard is carried by a tag, so no literal value can ever stand in
// for it.
type Symbol[K comparable] struct {
	lit  K
	wild bool
}

// Lit wraps k as a literal symbol.
func Lit[K comparable](k K) Symbol[K] {
	return Symbol[K]{lit: k}
}

// Any returns the wildcard symbol for literal domain K.
func Any[K comparable]() Symbol[K] {
	return Symbol[K]{wild: true}
}

// Wildcard returns the wildcard symbol of the text domain. Every call yields
// an equal value, and no package state can redefine it.
func Wildcard() Symbol[rune] {
	return Symbol[rune]{wild: true}
}

// IsWildcard reports whether s is the wildcard.
func (s Symbol[K]) IsWildcard() bool {
	return s.wild
}

// Literal returns the literal value of s. ok is false for the wildcard.
func (s Symbol[K]) Literal() (k K, ok bool) {
	return s.lit, !s.wild
}

// Literals converts a literal-only sequence to a pattern.
func Literals[K comparable](ks []K) []Symbol[K] {
	out := make([]Symbol[K], len(ks))
	for i, k := range ks {
		out[i] = Lit(k)
	}
	return out
}

// Runes decomposes s into one literal per Unicode code point.
func Runes(s string) []Symbol[rune] {
	return Literals([]rune(s))
}

// Pattern decomposes s per code point, turning every occurrence of marker
// into the wildcard.
func Pattern(s string, marker rune) []Symbol[rune] {
	rs := []rune(s)
	out := make([]Symbol[rune], len(rs))
	for i, r := range rs {
		if r == marker {
			out[i] = Wildcard()
		} else {
			out[i] = Lit(r)
		}
	}
	return out
}

// InsertString inserts the code points of s as a wildcard-free pattern.
func InsertString[V any](t *Trie[rune, V], s string, value V) error {
	return t.Insert(Runes(s), value)
}

// SearchString searches the code points of s.
func SearchString[V any](t *Trie[rune, V], s string) (V, bool) {
	return t.Search([]rune(s))
}

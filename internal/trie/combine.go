package trie

// PrependCombine collects values newest first.
func PrependCombine[V any](existing []V, present bool, incoming []V) ([]V, error) {
	if !present {
		return append([]V(nil), incoming...), nil
	}
	out := make([]V, 0, len(incoming)+len(existing))
	out = append(out, incoming...)
	return append(out, existing...), nil
}

// AppendCombine collects values in insertion order. The stored slice is
// clipped first, so a slice returned by an earlier Search is never written
// through.
func AppendCombine[V any](existing []V, present bool, incoming []V) ([]V, error) {
	if !present {
		return append([]V(nil), incoming...), nil
	}
	return append(existing[:len(existing):len(existing)], incoming...), nil
}

// ReplaceCombine keeps only the latest value.
func ReplaceCombine[V any](_ V, _ bool, incoming V) (V, error) {
	return incoming, nil
}

package synth

import "math/rand/v2"

// weighted is one outcome of a discrete distribution. Distributions are
// slices rather than maps so a seeded generator is reproducible.
type weighted struct {
	key    string
	weight float64
}

// sample draws a key with probability proportional to its weight.
// Zero-weight outcomes are never drawn. Returns "" for an empty or all-zero
// distribution.
func sample(rng *rand.Rand, dist []weighted) string {
	total := 0.0
	for _, w := range dist {
		total += w.weight
	}
	if total <= 0 {
		return ""
	}

	choice := rng.Float64() * total
	rolling := 0.0
	last := ""
	for _, w := range dist {
		if w.weight <= 0 {
			continue
		}
		rolling += w.weight
		last = w.key
		if choice < rolling {
			return w.key
		}
	}
	return last
}

// uniform picks one element of xs. xs must be non-empty.
func uniform[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}

// coin returns true with probability bias.
func coin(rng *rand.Rand, bias float64) bool {
	return rng.Float64() < bias
}

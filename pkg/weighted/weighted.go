// Package weighted samples indexes from a discrete weighted distribution.
package weighted

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Chooser picks indexes in proportion to the weights it was built with.
// A Chooser is immutable and safe for concurrent use.
type Chooser struct {
	cumulative []float64
	total      float64
}

// New builds a Chooser over the given weights. Weights must be finite and
// non-negative, and at least one must be positive.
func New(weights []float64) (*Chooser, error) {
	if len(weights) == 0 {
		return nil, errors.New("weighted: empty weight list")
	}

	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("weighted: invalid weight %v at index %d", w, i)
		}
		total += w
		cumulative[i] = total
	}
	if total <= 0 {
		return nil, errors.New("weighted: total weight must be positive")
	}

	return &Chooser{cumulative: cumulative, total: total}, nil
}

// Pick samples one index. rnd must return uniform values in [0, 1).
// Zero-weight indexes own an empty cumulative interval and are unreachable.
func (c *Chooser) Pick(rnd func() float64) int {
	r := rnd() * c.total

	// smallest index whose cumulative sum strictly exceeds r
	i := sort.Search(len(c.cumulative), func(i int) bool {
		return c.cumulative[i] > r
	})
	if i == len(c.cumulative) {
		// r landed on the total itself (rounding at the top edge); back up to
		// the last index that actually carries weight
		i--
		for i > 0 && c.cumulative[i] == c.cumulative[i-1] {
			i--
		}
	}
	return i
}

// Entropy returns a uniform source backed by the runtime's global generator,
// which Go seeds from OS entropy at process start.
func Entropy() func() float64 {
	return rand.Float64
}

package simulation

import (
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/behavior"
)

type pairKey struct {
	lo, hi int
}

// DistanceCache memoises boid pair distances for the duration of one tick.
// Each unordered pair is computed once and looked up the second time.
// It is owned by the tick loop and must be Reset before every velocity pass.
type DistanceCache struct {
	pairs  map[pairKey]float64
	hits   int
	misses int
}

func NewDistanceCache(numBoids int) *DistanceCache {
	return &DistanceCache{pairs: make(map[pairKey]float64, numBoids*(numBoids-1)/2)}
}

// Reset empties the cache, keeping its capacity.
func (c *DistanceCache) Reset() {
	clear(c.pairs)
	c.hits, c.misses = 0, 0
}

// Len is the number of cached pairs.
func (c *DistanceCache) Len() int { return len(c.pairs) }

// Stats returns lookups served from the cache and lookups computed since Reset.
func (c *DistanceCache) Stats() (hits, misses int) { return c.hits, c.misses }

// Distance implements behavior.Distances.
func (c *DistanceCache) Distance(a, b *behavior.Boid) float64 {
	key := pairKey{lo: min(a.ID(), b.ID()), hi: max(a.ID(), b.ID())}
	if d, ok := c.pairs[key]; ok {
		c.hits++
		return d
	}
	d := a.DistanceTo(b)
	c.pairs[key] = d
	c.misses++
	return d
}

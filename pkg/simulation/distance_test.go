package simulation

import (
	"math"
	"testing"
)

func TestDistanceCache_Equivalence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumBoids = 12
	cfg.Seed = 42
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	boids := s.Boids()

	// one velocity pass fills the cache
	s.cache.Reset()
	s.env.Attractors = s.Attractors()
	for _, b := range boids {
		b.CalcVelocity(boids, &s.env)
	}

	n := len(boids)
	if got, want := s.cache.Len(), n*(n-1)/2; got != want {
		t.Errorf("cache holds %d pairs after one pass; want %d", got, want)
	}
	hits, misses := s.cache.Stats()
	if misses != n*(n-1)/2 || hits != n*(n-1)/2 {
		t.Errorf("Stats() = (%d hits, %d misses); want each pair computed once and looked up once", hits, misses)
	}

	for i, a := range boids {
		for j, b := range boids {
			if i == j {
				continue
			}
			direct := a.Location().DistanceTo(b.Location())
			if got := s.cache.Distance(a, b); math.Abs(got-direct) > 1e-12 {
				t.Errorf("cache distance(%d, %d) = %v; direct %v", i, j, got, direct)
			}
		}
	}

	s.cache.Reset()
	if s.cache.Len() != 0 {
		t.Errorf("Reset left %d pairs", s.cache.Len())
	}
}

func BenchmarkVelocityPass(b *testing.B) {
	cfg := DefaultConfig()
	cfg.NumBoids = 50
	cfg.Seed = 1
	s, err := New(cfg, nil)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Tick()
	}
}

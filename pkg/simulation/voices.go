package simulation

import (
	"github.com/lao-tseu-is-alive/go-murmurations/pkg/geometry"
)

// BoidVoices exposes every boid of a swarm as a separate voice, for
// polyphonic interpretation. Voice i is boid i.
type BoidVoices struct {
	swarm *Swarm
}

func NewBoidVoices(s *Swarm) *BoidVoices { return &BoidVoices{swarm: s} }

func (v *BoidVoices) Voices() int { return v.swarm.NumBoids() }

// Ratios returns how far along each axis boid voice currently is.
func (v *BoidVoices) Ratios(voice int) geometry.Vector {
	snap, ok := v.swarm.BoidSnapshot(voice)
	if !ok {
		return geometry.Filled(v.swarm.Dims(), 0)
	}
	return v.swarm.Cube().Ratios(snap.Location)
}

// CentroidVoice exposes the swarm's centre of mass as a single voice, for
// monophonic interpretation.
type CentroidVoice struct {
	swarm *Swarm
}

func NewCentroidVoice(s *Swarm) *CentroidVoice { return &CentroidVoice{swarm: s} }

func (c *CentroidVoice) Voices() int { return 1 }

func (c *CentroidVoice) Ratios(int) geometry.Vector {
	loc, _ := c.swarm.CentreOfMass()
	return c.swarm.Cube().Ratios(loc)
}

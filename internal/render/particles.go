package render

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/EGORIUMAS/ZmeykaOnline/internal/config"
)

// Particle is a purely decorative entity: never persisted, never part of a
// snapshot, free to desync across clients.
type Particle struct {
	X, Y    float64
	VX, VY  float64
	Life    int
	MaxLife int
	Color   color.RGBA
}

// SpawnBurst creates the eat effect: a ring of particles at the center of
// grid cell (x, y), velocities spread around a full circle with a little
// angular jitter and randomized speed.
func (s *Scene) SpawnBurst(x, y int, colorStr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := ParseColor(colorStr)
	cx := (float64(x) + 0.5) * float64(s.cell)
	cy := (float64(y) + 0.5) * float64(s.cell)

	for i := 0; i < config.ParticleBurstCount; i++ {
		angle := (2*math.Pi*float64(i))/float64(config.ParticleBurstCount) + rand.Float64()*0.5
		speed := 1 + rand.Float64()*3

		s.particles = append(s.particles, Particle{
			X:       cx,
			Y:       cy,
			VX:      math.Cos(angle) * speed,
			VY:      math.Sin(angle) * speed,
			Life:    config.ParticleLifeFrames,
			MaxLife: config.ParticleLifeFrames,
			Color:   col,
		})
	}
}

// advanceParticles moves every particle one frame and culls the expired.
// Cull-then-skip: a particle whose life hits zero on this advance is removed
// before the draw pass, so the last visible frame is the one before expiry.
// Callers hold s.mu.
func (s *Scene) advanceParticles() {
	live := s.particles[:0]
	for _, p := range s.particles {
		p.X += p.VX
		p.Y += p.VY
		p.Life--
		if p.Life <= 0 {
			continue
		}
		live = append(live, p)
	}
	s.particles = live
}

// Particles returns a copy of the live particle set.
func (s *Scene) Particles() []Particle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Particle(nil), s.particles...)
}

// alpha returns the particle's linear fade factor.
func (p Particle) alpha() float64 {
	if p.MaxLife <= 0 {
		return 0
	}
	return float64(p.Life) / float64(p.MaxLife)
}

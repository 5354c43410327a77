package simulation

import (
	"math"

	"github.com/quartercastle/vector"
)

// G is the gravitational constant in m³·kg⁻¹·s⁻².
const G = 6.67408e-11

// DefaultMass is the mass assigned to randomly placed particles.
const DefaultMass = 5.0e6

// CentralMass is the mass of the anchor body placed at the origin.
const CentralMass = 1.0e12

// Particle is a point mass. Pos, Vel and M are free to be read and modified
// between steps; the force accumulator is transient and only meaningful
// inside a single step.
type Particle struct {
	Pos vector.Vector
	Vel vector.Vector
	M   float64
	acc vector.Vector
}

func NewParticle(x, y, m float64) Particle {
	return Particle{
		Pos: vector.Vector{x, y},
		Vel: vector.Vector{0, 0},
		acc: vector.Vector{0, 0},
		M:   m,
	}
}

// ForceFrom accumulates the gravitational pull of o onto p. The caller must
// never pass p itself or a particle at zero distance, both make the
// magnitude blow up.
func (p *Particle) ForceFrom(o *Particle) {
	p.force(o.Pos.X()-p.Pos.X(), o.Pos.Y()-p.Pos.Y(), o.M)
}

func (p *Particle) force(dx, dy, mass float64) {
	d := math.Hypot(dx, dy)
	t := math.Atan2(dy, dx)
	f := G * mass / (d * d)
	vector.In(p.acc).Add(vector.Vector{f * math.Cos(t), f * math.Sin(t)})
}

// Integrate advances the particle by one semi-implicit Euler step and resets
// the force accumulator.
func (p *Particle) Integrate(dt float64) {
	vector.In(p.Vel).Add(p.acc.Scale(dt))
	vector.In(p.Pos).Add(p.Vel.Scale(dt))
	vector.In(p.acc).Scale(0)
}

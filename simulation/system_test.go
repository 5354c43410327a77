package simulation

import (
	"math"
	"testing"

	"github.com/quartercastle/vector"
	"github.com/stretchr/testify/assert"
)

func TestNewSystem_Validation(t *testing.T) {
	valid := Config{NumParticles: 4, Bounds: 10, Theta: 0.5, DeltaTime: 0.1, Workers: 2}
	for _, test := range []struct {
		Name   string
		Mutate func(*Config)
	}{
		{Name: "zero particles", Mutate: func(c *Config) { c.NumParticles = 0 }},
		{Name: "zero workers", Mutate: func(c *Config) { c.Workers = 0 }},
		{Name: "negative bounds", Mutate: func(c *Config) { c.Bounds = -1 }},
		{Name: "zero timestep", Mutate: func(c *Config) { c.DeltaTime = 0 }},
		{Name: "negative theta", Mutate: func(c *Config) { c.Theta = -0.1 }},
	} {
		t.Run(test.Name, func(t *testing.T) {
			conf := valid
			test.Mutate(&conf)
			sys, err := NewSystem(conf)
			assert.Error(t, err)
			assert.Nil(t, sys)
		})
	}
}

func TestNewSystem_SeededPlacement(t *testing.T) {
	assert := assert.New(t)
	conf := Config{NumParticles: 32, Bounds: 100, Seed: 1337, Theta: 0.5, DeltaTime: 0.1, Workers: 4}
	sys, err := NewSystem(conf)
	assert.NoError(err)
	defer sys.Close()
	assert.Len(sys.Particles, 32)
	for _, p := range sys.Particles[:31] {
		assert.Equal(DefaultMass, p.M)
		assert.LessOrEqual(math.Abs(p.Pos.X()), 100.0)
		assert.LessOrEqual(math.Abs(p.Pos.Y()), 100.0)
	}
	central := sys.Particles[31]
	assert.Equal(vector.Vector{0, 0}, central.Pos, "the last particle anchors the origin")
	assert.Equal(CentralMass, central.M)

	other, err := NewSystem(conf)
	assert.NoError(err)
	defer other.Close()
	for i := range sys.Particles {
		assert.Equal(sys.Particles[i].Pos, other.Particles[i].Pos, "same seed, same placement")
	}
}

func TestSystem_DeterministicTrajectories(t *testing.T) {
	assert := assert.New(t)
	run := func(workers int) *System {
		sys, err := NewSystem(Config{
			NumParticles: 64, Bounds: 100, Seed: 7, Theta: 0.5, DeltaTime: 0.1, Workers: workers,
		})
		assert.NoError(err)
		defer sys.Close()
		for step := 0; step < 3; step++ {
			sys.Update()
		}
		return sys
	}
	a, b, c := run(4), run(4), run(8)
	for i := range a.Particles {
		assert.Equal(a.Particles[i].Pos, b.Particles[i].Pos, "repeated runs are bit-identical")
		assert.Equal(a.Particles[i].Vel, b.Particles[i].Vel)
		// 4 and 8 both divide 64, so the slice partitioning covers every
		// particle and the result is independent of the worker count
		assert.Equal(a.Particles[i].Pos, c.Particles[i].Pos, "worker count does not change trajectories")
		assert.Equal(a.Particles[i].Vel, c.Particles[i].Vel)
	}
	assert.Equal(a.Bounds(), c.Bounds())
}

func TestSystem_TwoBodyClosedForm(t *testing.T) {
	assert := assert.New(t)
	sys, err := NewSystem(Config{
		NumParticles: 2, Bounds: 2, Seed: 1, Theta: 0, DeltaTime: 1, Workers: 2,
	})
	assert.NoError(err)
	defer sys.Close()
	sys.Particles[0] = NewParticle(-1, -1, 1)
	sys.Particles[1] = NewParticle(1, 1, 1)
	sys.Update()

	// d = hypot(2,2), f = G·1/d², bearing atan2(2,2) = π/4
	f := G / 8
	ax, ay := f*math.Cos(math.Pi/4), f*math.Sin(math.Pi/4)
	p0, p1 := sys.Particles[0], sys.Particles[1]
	assert.InDelta(ax, p0.Vel.X(), 1e-25)
	assert.InDelta(ay, p0.Vel.Y(), 1e-25)
	assert.InDelta(-ax, p1.Vel.X(), 1e-25)
	assert.InDelta(-ay, p1.Vel.Y(), 1e-25)
	assert.InDelta(-1+ax, p0.Pos.X(), 1e-25)
	assert.InDelta(-1+ay, p0.Pos.Y(), 1e-25)
	assert.InDelta(1-ax, p1.Pos.X(), 1e-25)
	assert.InDelta(1-ay, p1.Pos.Y(), 1e-25)
	assert.Equal(1.0, sys.Time())
}

func TestSystem_RemainderParticlesReceiveNoForce(t *testing.T) {
	assert := assert.New(t)
	// 5 particles over 2 workers leaves the last particle out of force
	// evaluation: floor(5/2) = 2 per slice
	sys, err := NewSystem(Config{
		NumParticles: 5, Bounds: 10, Seed: 3, Theta: 0, DeltaTime: 1, Workers: 2,
	})
	assert.NoError(err)
	defer sys.Close()
	positions := []vector.Vector{{-4, -4}, {4, -4}, {-4, 4}, {4, 4}, {1, 2}}
	for i, pos := range positions {
		sys.Particles[i] = NewParticle(pos.X(), pos.Y(), DefaultMass)
	}
	sys.Update()
	assert.Equal(vector.Vector{0, 0}, sys.Particles[4].Vel,
		"excluded particle accumulates no force")
	assert.Equal(vector.Vector{1, 2}, sys.Particles[4].Pos)
	for i := 0; i < 4; i++ {
		assert.NotEqual(vector.Vector{0, 0}, sys.Particles[i].Vel,
			"particle %d inside the slices is accelerated", i)
	}
}

func TestSystem_BoundsRecenter(t *testing.T) {
	assert := assert.New(t)
	sys, err := NewSystem(Config{
		NumParticles: 3, Bounds: 10, Seed: 5, Theta: 0, DeltaTime: 1, Workers: 3,
	})
	assert.NoError(err)
	defer sys.Close()
	sys.Particles[0] = NewParticle(-3, 1, 1)
	sys.Particles[1] = NewParticle(2, 7, 1)
	sys.Particles[2] = NewParticle(1, -2, 1)
	sys.Update()
	b := sys.Bounds()
	assert.Equal(-b.UR.X(), b.LL.X(), "bounds stay centered on the origin")
	assert.Equal(-b.UR.Y(), b.LL.Y())
	assert.Equal(b.UR.X(), b.UR.Y(), "bounds stay square")
	// masses of 1 barely move anything, the largest coordinate stays ~7
	assert.InDelta(7, b.UR.X(), 1e-6)
}

func TestSystem_ExtentsLifecycle(t *testing.T) {
	assert := assert.New(t)
	sys, err := NewSystem(Config{
		NumParticles: 16, Bounds: 50, Seed: 9, Theta: 0.5, DeltaTime: 0.1, Workers: 4,
	})
	assert.NoError(err)
	defer sys.Close()
	assert.Nil(sys.Extents(), "no tree exists before the first update")
	sys.Update()
	assert.Len(sys.Extents(), 16, "every particle occupies exactly one leaf")
}

func TestInitializeOrbits(t *testing.T) {
	assert := assert.New(t)
	particles := []Particle{
		NewParticle(3, 4, 1),
		NewParticle(0, 0, CentralMass),
	}
	InitializeOrbits(particles)
	assert.InDelta(-0.8, particles[0].Vel.X(), 1e-12)
	assert.InDelta(0.6, particles[0].Vel.Y(), 1e-12)
	assert.Equal(vector.Vector{0, 0}, particles[1].Vel, "the central body stays at rest")
}

package simulation

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/quartercastle/vector"
	"github.com/rs/zerolog/log"

	"github.com/avanlint/particlemodel/lockstep"
)

// Config parametrizes a System.
type Config struct {
	// NumParticles is the total particle count, including the central body.
	NumParticles int
	// Bounds is the half-extent of the initial placement square, i.e.
	// particles spawn uniformly in [-Bounds, Bounds]².
	Bounds float64
	Seed   int64
	// Theta is the Barnes-Hut acceptance threshold; lower values trade
	// speed for accuracy, zero means exact pairwise summation.
	Theta     float64
	DeltaTime float64
	Workers   int
}

// System owns the particle array and drives the per-step pipeline: tree
// rebuild, parallel force collection across a fixed worker pool, serial
// integration and bounds recompute.
type System struct {
	Particles []Particle

	bounds Bounds
	theta  float64
	dt     float64
	time   float64
	tree   *QuadTree
	pool   *lockstep.Pool
}

// forceSlice binds one worker to a contiguous range of the particle array.
// Concurrent slices write only their own particles' accumulators, so no
// locking is needed during force collection.
type forceSlice struct {
	system *System
	start  int
	count  int
}

func (f *forceSlice) Execute() {
	f.system.collectForces(f.start, f.count)
}

// NewSystem seeds NumParticles-1 particles uniformly inside the bounds
// square plus one body of CentralMass at the origin, and starts one force
// worker per Config.Workers. Callers must Close the system to release the
// workers.
func NewSystem(conf Config) (*System, error) {
	if conf.NumParticles <= 0 {
		return nil, errors.Errorf("number of particles must be positive, got %d", conf.NumParticles)
	}
	if conf.Workers <= 0 {
		return nil, errors.Errorf("worker count must be positive, got %d", conf.Workers)
	}
	if conf.Bounds <= 0 {
		return nil, errors.Errorf("bounds half-extent must be positive, got %g", conf.Bounds)
	}
	if conf.DeltaTime <= 0 {
		return nil, errors.Errorf("timestep must be positive, got %g", conf.DeltaTime)
	}
	if conf.Theta < 0 {
		return nil, errors.Errorf("theta must not be negative, got %g", conf.Theta)
	}
	s := &System{
		Particles: make([]Particle, 0, conf.NumParticles),
		bounds: Bounds{
			LL: vector.Vector{-conf.Bounds, -conf.Bounds},
			UR: vector.Vector{conf.Bounds, conf.Bounds},
		},
		theta: conf.Theta,
		dt:    conf.DeltaTime,
	}
	rng := rand.New(rand.NewSource(conf.Seed))
	for i := 0; i < conf.NumParticles-1; i++ {
		x := -conf.Bounds + 2*conf.Bounds*rng.Float64()
		y := -conf.Bounds + 2*conf.Bounds*rng.Float64()
		s.Particles = append(s.Particles, NewParticle(x, y, DefaultMass))
	}
	s.Particles = append(s.Particles, NewParticle(0, 0, CentralMass))

	sliceSize := conf.NumParticles / conf.Workers
	if rem := conf.NumParticles % conf.Workers; rem != 0 {
		log.Warn().Msgf(
			"%d particles split across %d workers: the last %d particles receive no forces",
			conf.NumParticles, conf.Workers, rem,
		)
	}
	tasks := make([]lockstep.Task, conf.Workers)
	for i := range tasks {
		tasks[i] = &forceSlice{system: s, start: i * sliceSize, count: sliceSize}
	}
	s.pool = lockstep.NewPool(tasks)
	return s, nil
}

// InitializeOrbits assigns every particle away from the origin a unit
// tangential velocity, putting the cloud on a rough orbit around the central
// body.
func InitializeOrbits(particles []Particle) {
	for i := range particles {
		p := &particles[i]
		r := math.Hypot(p.Pos.X(), p.Pos.Y())
		if r > 1.0e-8 {
			p.Vel = vector.Vector{-p.Pos.Y() / r, p.Pos.X() / r}
		}
	}
}

func (s *System) buildTree() {
	s.tree = NewQuadTree(s.theta, s.bounds, s.Particles)
	for i := range s.Particles {
		s.tree.Add(i)
	}
	s.tree.CalculateMasses()
}

func (s *System) collectForces(start, count int) {
	for i := start; i < start+count; i++ {
		s.tree.Force(i)
	}
}

// integrate advances every particle serially and re-centers the bounding
// square symmetrically around the origin at the largest absolute coordinate
// seen.
func (s *System) integrate(dt float64) {
	bound := 0.0
	for i := range s.Particles {
		p := &s.Particles[i]
		p.Integrate(dt)
		if x := math.Abs(p.Pos.X()); x > bound {
			bound = x
		}
		if y := math.Abs(p.Pos.Y()); y > bound {
			bound = y
		}
	}
	s.bounds = Bounds{
		LL: vector.Vector{-bound, -bound},
		UR: vector.Vector{bound, bound},
	}
}

// Update advances the simulation by exactly one timestep: rebuild the tree,
// run one synchronized force-collection round across all workers, then
// integrate serially.
func (s *System) Update() {
	s.buildTree()
	s.pool.Trigger()
	s.integrate(s.dt)
	s.time += s.dt
}

// Close stops the worker pool. The system must not be updated afterwards.
func (s *System) Close() {
	s.pool.Stop()
}

// Bounds returns the current bounding square.
func (s *System) Bounds() Bounds {
	return s.bounds
}

// Time returns the elapsed simulation time.
func (s *System) Time() float64 {
	return s.time
}

// Extents returns the bounding squares of all occupied leaves of the tree
// built by the most recent Update, or nil before the first one.
func (s *System) Extents() []Bounds {
	if s.tree == nil {
		return nil
	}
	return s.tree.Extents(nil)
}

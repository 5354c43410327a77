package simulation

import (
	"math"

	"github.com/quartercastle/vector"
)

// Bounds is an axis-aligned square given by its lower-left and upper-right
// corners.
type Bounds struct {
	LL, UR vector.Vector
}

func (b Bounds) Width() float64 {
	return b.UR.X() - b.LL.X()
}

// child quadrants
const (
	ne = iota
	nw
	sw
	se
)

// QuadTree recursively partitions a square region over the particle array.
// Particles are referenced by index, the tree never owns them; it is
// discarded and rebuilt from scratch every simulation step.
//
// Mass and Center are only valid after CalculateMasses has run for the
// current set of insertions.
type QuadTree struct {
	Theta  float64
	Region Bounds
	Mass   float64
	Center vector.Vector

	particles []Particle
	resident  int
	children  [4]*QuadTree
}

func NewQuadTree(theta float64, region Bounds, particles []Particle) *QuadTree {
	return &QuadTree{
		Theta:     theta,
		Region:    region,
		Center:    vector.Vector{0, 0},
		particles: particles,
		resident:  -1,
	}
}

// getQuadrant returns the child covering pos, creating it on first use. The
// four cases cover the whole region without gaps or overlaps, so points on
// the midpoint lines route deterministically: the exact midpoint itself
// falls into SE.
func (qt *QuadTree) getQuadrant(pos vector.Vector) *QuadTree {
	mx := 0.5 * (qt.Region.LL.X() + qt.Region.UR.X())
	my := 0.5 * (qt.Region.LL.Y() + qt.Region.UR.Y())
	x, y := pos.X(), pos.Y()
	var (
		q      int
		region Bounds
	)
	switch {
	case x > mx && y >= my:
		q = ne
		region = Bounds{LL: vector.Vector{mx, my}, UR: qt.Region.UR}
	case x <= mx && y > my:
		q = nw
		region = Bounds{LL: vector.Vector{qt.Region.LL.X(), my}, UR: vector.Vector{mx, qt.Region.UR.Y()}}
	case x < mx && y <= my:
		q = sw
		region = Bounds{LL: qt.Region.LL, UR: vector.Vector{mx, my}}
	default:
		q = se
		region = Bounds{LL: vector.Vector{mx, qt.Region.LL.Y()}, UR: vector.Vector{qt.Region.UR.X(), my}}
	}
	if qt.children[q] == nil {
		qt.children[q] = NewQuadTree(qt.Theta, region, qt.particles)
	}
	return qt.children[q]
}

func (qt *QuadTree) hasChildren() bool {
	return qt.children[ne] != nil || qt.children[nw] != nil ||
		qt.children[sw] != nil || qt.children[se] != nil
}

// Add inserts particle i into the subtree. Two particles at the exact same
// coordinates subdivide forever; callers must avoid duplicate positions.
func (qt *QuadTree) Add(i int) {
	if qt.hasChildren() {
		qt.getQuadrant(qt.particles[i].Pos).Add(i)
		return
	}
	if qt.resident >= 0 {
		qt.subdivide(i)
		return
	}
	qt.resident = i
}

// subdivide relocates the resident particle into its quadrant before
// inserting the new one, leaving this node as a pure internal node.
func (qt *QuadTree) subdivide(i int) {
	existing := qt.resident
	qt.resident = -1
	qt.getQuadrant(qt.particles[existing].Pos).Add(existing)
	qt.getQuadrant(qt.particles[i].Pos).Add(i)
}

// CalculateMasses aggregates mass and center-of-mass bottom-up. Must run
// after all insertions for the step and before any Force call.
func (qt *QuadTree) CalculateMasses() {
	if qt.resident >= 0 {
		p := &qt.particles[qt.resident]
		qt.Mass = p.M
		qt.Center = vector.Vector{p.Pos.X(), p.Pos.Y()}
		return
	}
	qt.Mass = 0
	qt.Center = vector.Vector{0, 0}
	for _, child := range qt.children {
		if child == nil {
			continue
		}
		child.CalculateMasses()
		vector.In(qt.Center).Add(child.Center.Scale(child.Mass))
		qt.Mass += child.Mass
	}
	// an empty subtree keeps its center at zero instead of dividing
	if qt.Mass > 0 {
		vector.In(qt.Center).Scale(1 / qt.Mass)
	}
}

// Force accumulates the gravitational force of the subtree onto particle i.
// A node whose width-to-distance ratio is below Theta acts as a single
// pseudo-particle at its center of mass; at Theta of zero this degenerates
// to exact pairwise summation.
func (qt *QuadTree) Force(i int) {
	p := &qt.particles[i]
	if qt.resident >= 0 {
		if qt.resident != i {
			p.ForceFrom(&qt.particles[qt.resident])
		}
		return
	}
	dx := qt.Center.X() - p.Pos.X()
	dy := qt.Center.Y() - p.Pos.Y()
	d := math.Hypot(dx, dy)
	if qt.Region.Width()/d < qt.Theta {
		p.force(dx, dy, qt.Mass)
		return
	}
	for _, child := range qt.children {
		if child != nil {
			child.Force(i)
		}
	}
}

// Extents appends the bounding square of every occupied leaf to out and
// returns it. Diagnostic use only.
func (qt *QuadTree) Extents(out []Bounds) []Bounds {
	if qt.resident >= 0 {
		out = append(out, qt.Region)
	}
	for _, child := range qt.children {
		if child != nil {
			out = child.Extents(out)
		}
	}
	return out
}

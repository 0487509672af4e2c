package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Plane is the set of points p with Normal·p = Offset. Planes built by this
// package carry a unit normal, but nothing requires it.
type Plane struct {
	Normal v3.Vec
	Offset float64
}

// NewPlane returns the plane {p : normal·p = offset}.
func NewPlane(normal v3.Vec, offset float64) Plane {
	return Plane{Normal: normal, Offset: offset}
}

// PlaneFromPoints returns the plane through a, b and c, oriented so that the
// three points wind counter-clockwise when seen from the front. ok is false
// when the points are (nearly) collinear.
func PlaneFromPoints(a, b, c v3.Vec) (Plane, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Length()
	if l < Epsilon {
		return Plane{}, false
	}
	n = n.DivScalar(l)
	return Plane{Normal: n, Offset: n.Dot(a)}, true
}

// PlaneFromVertices fits a plane to a polygon outline using Newell's method,
// which tolerates collinear runs and keeps the outline's winding. ok is false
// for fewer than three vertices or a degenerate outline.
func PlaneFromVertices(vertices []Vertex) (Plane, bool) {
	if len(vertices) < 3 {
		return Plane{}, false
	}
	n := newellNormal(vertices)
	l := n.Length()
	// The negated test also rejects NaN.
	if !(l >= Epsilon*Epsilon) || math.IsInf(l, 0) {
		return Plane{}, false
	}
	n = n.DivScalar(l)

	var centroid v3.Vec
	for _, v := range vertices {
		centroid = centroid.Add(v.Pos)
	}
	centroid = centroid.DivScalar(float64(len(vertices)))
	return Plane{Normal: n, Offset: n.Dot(centroid)}, true
}

// newellNormal returns the area-weighted normal of a closed outline; its
// length is twice the enclosed area.
func newellNormal(vertices []Vertex) v3.Vec {
	var n v3.Vec
	for i := range vertices {
		cur := vertices[i].Pos
		next := vertices[(i+1)%len(vertices)].Pos
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// SignedDistance returns Normal·p − Offset. It is a true distance only for
// unit normals.
func (p Plane) SignedDistance(pt v3.Vec) float64 {
	return p.Normal.Dot(pt) - p.Offset
}

// OrientPoint classifies pt as Front, Back or Coplanar within ±Epsilon.
func (p Plane) OrientPoint(pt v3.Vec) Orientation {
	d := p.SignedDistance(pt)
	switch {
	case d > Epsilon:
		return Front
	case d < -Epsilon:
		return Back
	default:
		return Coplanar
	}
}

// OrientPlane classifies a (coplanar candidate) plane as Front or Back of p by
// stepping from a point on other along other's unit normal. Planes facing the
// same way as p come out Front.
func (p Plane) OrientPlane(other Plane) Orientation {
	n2 := other.Normal.Dot(other.Normal)
	if n2 < Epsilon*Epsilon {
		return Back
	}
	onPlane := other.Normal.MulScalar(other.Offset / n2)
	witness := onPlane.Add(other.Normal.DivScalar(math.Sqrt(n2)))
	if p.OrientPoint(witness) == Front {
		return Front
	}
	return Back
}

// Flip returns the plane facing the opposite way; the point set is unchanged.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Neg(), Offset: -p.Offset}
}

// Equals reports whether both planes have the same orientation and offset
// within tol.
func (p Plane) Equals(other Plane, tol float64) bool {
	return p.Normal.Sub(other.Normal).Length() <= tol && math.Abs(p.Offset-other.Offset) <= tol
}

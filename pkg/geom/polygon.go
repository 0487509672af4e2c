package geom

import (
	"iter"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// Polygon is a convex planar polygon with at least three vertices in
// counter-clockwise order when seen from the front of Plane.
//
// Metadata is carried through every operation untouched; fragments produced
// by splitting inherit their parent's metadata.
//
// Vertex slices are never modified in place once a polygon exists: Flip and
// the transforms build new slices, so polygons may share them freely.
type Polygon[S any] struct {
	Vertices []Vertex
	Plane    Plane
	Metadata S
}

// NewPolygon builds a polygon and derives its plane from the vertices. ok is
// false for fewer than three vertices or a near-zero area outline; callers
// drop such polygons.
func NewPolygon[S any](vertices []Vertex, metadata S) (Polygon[S], bool) {
	plane, ok := PlaneFromVertices(vertices)
	if !ok {
		return Polygon[S]{}, false
	}
	return Polygon[S]{Vertices: vertices, Plane: plane, Metadata: metadata}, true
}

// Degenerate reports whether p cannot take part in splitting: it has fewer
// than three vertices, a plane normal shorter than Epsilon, or a coordinate
// that is not finite. Such a polygon classifies every other polygon as
// coplanar, so it must never become a splitting plane.
func (p Polygon[S]) Degenerate() bool {
	if len(p.Vertices) < 3 || !finite(p.Plane.Normal) || !finiteScalar(p.Plane.Offset) {
		return true
	}
	if p.Plane.Normal.Length() < Epsilon {
		return true
	}
	for _, v := range p.Vertices {
		if !finite(v.Pos) {
			return true
		}
	}
	return false
}

// DropDegenerate returns polys without its degenerate polygons. polys itself
// is returned when nothing is dropped.
func DropDegenerate[S any](polys []Polygon[S]) []Polygon[S] {
	if !lo.SomeBy(polys, Polygon[S].Degenerate) {
		return polys
	}
	return lo.Reject(polys, func(p Polygon[S], _ int) bool { return p.Degenerate() })
}

func finite(v v3.Vec) bool {
	return finiteScalar(v.X) && finiteScalar(v.Y) && finiteScalar(v.Z)
}

func finiteScalar(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Flip reverses the winding, negates every vertex normal and flips the plane.
// Flipping twice restores the polygon exactly.
func (p *Polygon[S]) Flip() {
	n := len(p.Vertices)
	flipped := make([]Vertex, n)
	for i, v := range p.Vertices {
		flipped[n-1-i] = v.Flip()
	}
	p.Vertices = flipped
	p.Plane = p.Plane.Flip()
}

// Clone returns a copy that shares nothing mutable with p.
func (p Polygon[S]) Clone() Polygon[S] {
	vs := make([]Vertex, len(p.Vertices))
	copy(vs, p.Vertices)
	p.Vertices = vs
	return p
}

// Classify returns the OR of the orientations of every vertex against pl.
func (p Polygon[S]) Classify(pl Plane) Orientation {
	var o Orientation
	for _, v := range p.Vertices {
		o |= pl.OrientPoint(v.Pos)
	}
	return o
}

// Area returns the enclosed area.
func (p Polygon[S]) Area() float64 {
	if len(p.Vertices) < 3 {
		return 0
	}
	return newellNormal(p.Vertices).Length() / 2
}

// Edges yields each edge as a (start, end) pair, closing the loop.
func (p Polygon[S]) Edges() iter.Seq2[Vertex, Vertex] {
	return func(yield func(Vertex, Vertex) bool) {
		n := len(p.Vertices)
		for i := 0; i < n; i++ {
			if !yield(p.Vertices[i], p.Vertices[(i+1)%n]) {
				return
			}
		}
	}
}

// Triangulate fans the polygon from its first vertex. Convexity makes the fan
// valid and keeps the winding of the source polygon.
func (p Polygon[S]) Triangulate() [][3]Vertex {
	if len(p.Vertices) < 3 {
		return nil
	}
	tris := make([][3]Vertex, 0, len(p.Vertices)-2)
	for i := 1; i+1 < len(p.Vertices); i++ {
		tris = append(tris, [3]Vertex{p.Vertices[0], p.Vertices[i], p.Vertices[i+1]})
	}
	return tris
}

// BoundingBox returns the axis-aligned bounds of the vertices.
func (p Polygon[S]) BoundingBox() sdf.Box3 {
	return boundsOf(p.Vertices)
}

// Centroid returns the vertex average.
func (p Polygon[S]) Centroid() v3.Vec {
	var c v3.Vec
	if len(p.Vertices) == 0 {
		return c
	}
	for _, v := range p.Vertices {
		c = c.Add(v.Pos)
	}
	return c.DivScalar(float64(len(p.Vertices)))
}

func boundsOf(vertices []Vertex) sdf.Box3 {
	if len(vertices) == 0 {
		return sdf.Box3{}
	}
	lower := vertices[0].Pos
	upper := vertices[0].Pos
	for _, v := range vertices[1:] {
		lower = lower.Min(v.Pos)
		upper = upper.Max(v.Pos)
	}
	return sdf.Box3{Min: lower, Max: upper}
}

// BoundsOf returns the bounding box of every vertex of every polygon. The
// empty set yields the zero box.
func BoundsOf[S any](polygons []Polygon[S]) sdf.Box3 {
	var (
		box   sdf.Box3
		first = true
	)
	for _, p := range polygons {
		if len(p.Vertices) == 0 {
			continue
		}
		b := p.BoundingBox()
		if first {
			box, first = b, false
			continue
		}
		box = sdf.Box3{Min: box.Min.Min(b.Min), Max: box.Max.Max(b.Max)}
	}
	return box
}

// fragment wraps the vertices produced by a split into a polygon sharing the
// parent's plane and metadata. Outlines that collapsed during the split are
// rejected.
func fragment[S any](vertices []Vertex, parent Polygon[S]) (Polygon[S], bool) {
	if len(vertices) < 3 {
		return Polygon[S]{}, false
	}
	if newellNormal(vertices).Length() <= Epsilon*Epsilon {
		return Polygon[S]{}, false
	}
	return Polygon[S]{Vertices: vertices, Plane: parent.Plane, Metadata: parent.Metadata}, true
}

// Package csg composes BSP trees into boolean operations on closed polygon
// meshes and provides the transforms and measures that go with them.
//
// Inputs should be closed 2-manifold solids. Other input never panics, but
// the result is best effort. Degenerate polygons are dropped before any tree
// is built.
package csg

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/csgbsp/pkg/bsp"
	"github.com/chazu/csgbsp/pkg/geom"
)

// Mesh is a solid described by its boundary polygons. The zero Mesh is the
// empty solid.
type Mesh[S any] struct {
	Polygons []geom.Polygon[S]
}

// FromPolygons returns a mesh over a copy of polys.
func FromPolygons[S any](polys []geom.Polygon[S]) Mesh[S] {
	return Mesh[S]{Polygons: append([]geom.Polygon[S](nil), polys...)}
}

// Clone returns a mesh that shares no polygon list with m.
func (m Mesh[S]) Clone() Mesh[S] {
	return FromPolygons(m.Polygons)
}

// usable returns m without the degenerate polygons no tree can split with.
func (m Mesh[S]) usable() Mesh[S] {
	return Mesh[S]{Polygons: geom.DropDegenerate(m.Polygons)}
}

// IsEmpty reports whether m has no polygons.
func (m Mesh[S]) IsEmpty() bool {
	return len(m.Polygons) == 0
}

// Inverse swaps inside and outside by flipping every polygon.
func (m Mesh[S]) Inverse() Mesh[S] {
	out := m.Clone()
	for i := range out.Polygons {
		out.Polygons[i].Flip()
	}
	return out
}

// BoundingBox returns the axis-aligned bounds of every vertex. The empty
// mesh yields the zero box.
func (m Mesh[S]) BoundingBox() sdf.Box3 {
	return geom.BoundsOf(m.Polygons)
}

// SurfaceArea returns the summed area of all polygons.
func (m Mesh[S]) SurfaceArea() float64 {
	return lo.SumBy(m.Polygons, func(p geom.Polygon[S]) float64 {
		return p.Area()
	})
}

// Volume returns the enclosed volume by the divergence theorem. It is only
// meaningful for closed meshes; inverted solids come out negative.
func (m Mesh[S]) Volume() float64 {
	var vol float64
	for _, p := range m.Polygons {
		for _, tri := range p.Triangulate() {
			vol += tri[0].Pos.Dot(tri[1].Pos.Cross(tri[2].Pos))
		}
	}
	return vol / 6
}

// Triangulate returns the same solid with every polygon fanned into
// triangles.
func (m Mesh[S]) Triangulate() Mesh[S] {
	var out Mesh[S]
	for _, p := range m.Polygons {
		for _, tri := range p.Triangulate() {
			t, ok := geom.NewPolygon([]geom.Vertex{tri[0], tri[1], tri[2]}, p.Metadata)
			if !ok {
				continue
			}
			// Triangles keep the parent plane so coplanar tests stay exact.
			t.Plane = p.Plane
			out.Polygons = append(out.Polygons, t)
		}
	}
	return out
}

// Slice cuts the mesh with pl, returning polygons lying in pl and the
// segments where the rest crosses it.
func (m Mesh[S]) Slice(pl geom.Plane) ([]geom.Polygon[S], []bsp.Segment) {
	return bsp.FromPolygons(m.Polygons).Slice(pl)
}

// SetMetadata returns a copy of m with every polygon carrying meta.
func (m Mesh[S]) SetMetadata(meta S) Mesh[S] {
	return Retag(m, func(S) S { return meta })
}

// Retag converts the metadata of every polygon with fn.
func Retag[S, T any](m Mesh[S], fn func(S) T) Mesh[T] {
	return Mesh[T]{Polygons: lo.Map(m.Polygons, func(p geom.Polygon[S], _ int) geom.Polygon[T] {
		return geom.Polygon[T]{Vertices: p.Vertices, Plane: p.Plane, Metadata: fn(p.Metadata)}
	})}
}

// Centroid returns the mean of every vertex position.
func (m Mesh[S]) Centroid() v3.Vec {
	var (
		sum v3.Vec
		n   int
	)
	for _, p := range m.Polygons {
		for _, v := range p.Vertices {
			sum = sum.Add(v.Pos)
			n++
		}
	}
	if n == 0 {
		return sum
	}
	return sum.DivScalar(float64(n))
}

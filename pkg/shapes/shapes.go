// Package shapes generates closed polygon meshes for the usual primitive
// solids. Every face winds counter-clockwise seen from outside. Invalid
// parameters yield an empty mesh.
package shapes

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/csgbsp/pkg/csg"
	"github.com/chazu/csgbsp/pkg/geom"
)

// ErrFaceIndex is returned by Polyhedron for a face referencing a missing point.
var ErrFaceIndex = errors.New("shapes: face index out of range")

// appendFace adds the polygon through vs when it is not degenerate.
func appendFace[S any](polys []geom.Polygon[S], meta S, vs ...geom.Vertex) []geom.Polygon[S] {
	if p, ok := geom.NewPolygon(vs, meta); ok {
		return append(polys, p)
	}
	return polys
}

// Cuboid returns a box spanning [0,w]×[0,l]×[0,h].
func Cuboid[S any](w, l, h float64, meta S) csg.Mesh[S] {
	if !(w > 0 && l > 0 && h > 0) {
		return csg.Mesh[S]{}
	}
	corner := func(x, y, z float64) v3.Vec { return v3.Vec{X: x * w, Y: y * l, Z: z * h} }
	faces := []struct {
		normal  v3.Vec
		corners [4]v3.Vec
	}{
		{v3.Vec{Z: -1}, [4]v3.Vec{corner(0, 0, 0), corner(0, 1, 0), corner(1, 1, 0), corner(1, 0, 0)}},
		{v3.Vec{Z: 1}, [4]v3.Vec{corner(0, 0, 1), corner(1, 0, 1), corner(1, 1, 1), corner(0, 1, 1)}},
		{v3.Vec{Y: -1}, [4]v3.Vec{corner(0, 0, 0), corner(1, 0, 0), corner(1, 0, 1), corner(0, 0, 1)}},
		{v3.Vec{Y: 1}, [4]v3.Vec{corner(0, 1, 0), corner(0, 1, 1), corner(1, 1, 1), corner(1, 1, 0)}},
		{v3.Vec{X: -1}, [4]v3.Vec{corner(0, 0, 0), corner(0, 0, 1), corner(0, 1, 1), corner(0, 1, 0)}},
		{v3.Vec{X: 1}, [4]v3.Vec{corner(1, 0, 0), corner(1, 1, 0), corner(1, 1, 1), corner(1, 0, 1)}},
	}
	var polys []geom.Polygon[S]
	for _, f := range faces {
		vs := make([]geom.Vertex, 4)
		for i, c := range f.corners {
			vs[i] = geom.NewVertex(c, f.normal)
		}
		polys = appendFace(polys, meta, vs...)
	}
	return csg.Mesh[S]{Polygons: polys}
}

// Cube returns a cube of side s with its minimum corner at the origin.
func Cube[S any](s float64, meta S) csg.Mesh[S] {
	return Cuboid(s, s, s, meta)
}

// Sphere returns a UV sphere of radius r centred on the origin, with
// segments slices around the Y axis and stacks bands from pole to pole.
// Bands touching a pole are triangles.
func Sphere[S any](r float64, segments, stacks int, meta S) csg.Mesh[S] {
	if !(r > 0) || segments < 3 || stacks < 2 {
		return csg.Mesh[S]{}
	}
	vertex := func(theta, phi float64) geom.Vertex {
		dir := v3.Vec{
			X: math.Cos(theta) * math.Sin(phi),
			Y: math.Cos(phi),
			Z: math.Sin(theta) * math.Sin(phi),
		}
		return geom.NewVertex(dir.MulScalar(r), dir)
	}
	var polys []geom.Polygon[S]
	for i := 0; i < segments; i++ {
		theta0 := 2 * math.Pi * float64(i) / float64(segments)
		theta1 := 2 * math.Pi * float64(i+1) / float64(segments)
		for j := 0; j < stacks; j++ {
			phi0 := math.Pi * float64(j) / float64(stacks)
			phi1 := math.Pi * float64(j+1) / float64(stacks)

			vs := []geom.Vertex{vertex(theta0, phi0)}
			if j > 0 {
				vs = append(vs, vertex(theta1, phi0))
			}
			if j < stacks-1 {
				vs = append(vs, vertex(theta1, phi1))
			}
			vs = append(vs, vertex(theta0, phi1))
			polys = appendFace(polys, meta, vs...)
		}
	}
	return csg.Mesh[S]{Polygons: polys}
}

// FrustumBetween returns a truncated cone from start (radius r1) to end
// (radius r2). A zero radius collapses that cap into an apex.
func FrustumBetween[S any](start, end v3.Vec, r1, r2 float64, segments int, meta S) csg.Mesh[S] {
	ray := end.Sub(start)
	if ray.Dot(ray) < geom.Epsilon || segments < 3 || r1 < 0 || r2 < 0 {
		return csg.Mesh[S]{}
	}
	bottomPoint, topPoint := math.Abs(r1) < geom.Epsilon, math.Abs(r2) < geom.Epsilon
	if bottomPoint && topPoint {
		return csg.Mesh[S]{}
	}

	axisZ := ray.Normalize()
	ref := v3.Vec{Y: 1}
	if math.Abs(axisZ.Y) > 0.5 {
		ref = v3.Vec{X: 1}
	}
	axisX := ref.Cross(axisZ).Normalize()
	axisY := axisX.Cross(axisZ).Normalize()

	startV := geom.NewVertex(start, axisZ.Neg())
	endV := geom.NewVertex(end, axisZ)
	// point returns the rim vertex at height stack (0 bottom, 1 top) and
	// fraction slice around the axis; blend tilts the normal toward the axis
	// for cap vertices.
	point := func(stack, slice, blend float64) geom.Vertex {
		radius := r1*(1-stack) + r2*stack
		angle := slice * 2 * math.Pi
		radial := axisX.MulScalar(math.Cos(angle)).Add(axisY.MulScalar(math.Sin(angle)))
		pos := start.Add(ray.MulScalar(stack)).Add(radial.MulScalar(radius))
		normal := radial.MulScalar(1 - math.Abs(blend)).Add(axisZ.MulScalar(blend))
		return geom.NewVertex(pos, normal.Normalize())
	}

	var polys []geom.Polygon[S]
	for i := 0; i < segments; i++ {
		s0 := float64(i) / float64(segments)
		s1 := float64(i+1) / float64(segments)
		if !bottomPoint {
			polys = appendFace(polys, meta, startV, point(0, s0, -1), point(0, s1, -1))
		}
		if !topPoint {
			polys = appendFace(polys, meta, endV, point(1, s1, 1), point(1, s0, 1))
		}
		switch {
		case bottomPoint:
			polys = appendFace(polys, meta, startV, point(1, s0, 0), point(1, s1, 0))
		case topPoint:
			polys = appendFace(polys, meta, point(0, s1, 0), point(0, s0, 0), endV)
		default:
			polys = appendFace(polys, meta, point(0, s1, 0), point(0, s0, 0), point(1, s0, 0), point(1, s1, 0))
		}
	}
	return csg.Mesh[S]{Polygons: polys}
}

// Frustum returns a frustum standing on the XY plane along +Z.
func Frustum[S any](r1, r2, h float64, segments int, meta S) csg.Mesh[S] {
	return FrustumBetween(v3.Vec{}, v3.Vec{Z: h}, r1, r2, segments, meta)
}

// Cylinder returns a cylinder of radius r standing on the XY plane along +Z.
func Cylinder[S any](r, h float64, segments int, meta S) csg.Mesh[S] {
	return Frustum(r, r, h, segments, meta)
}

// Polyhedron builds a mesh from shared points and faces listing point
// indices. Faces with fewer than three indices or no area are skipped;
// vertex normals are set to the face normal.
func Polyhedron[S any](points []v3.Vec, faces [][]int, meta S) (csg.Mesh[S], error) {
	var polys []geom.Polygon[S]
	for fi, face := range faces {
		if len(face) < 3 {
			continue
		}
		vs := make([]geom.Vertex, len(face))
		for i, idx := range face {
			if idx < 0 || idx >= len(points) {
				return csg.Mesh[S]{}, fmt.Errorf("face %d: index %d: %w", fi, idx, ErrFaceIndex)
			}
			vs[i].Pos = points[idx]
		}
		p, ok := geom.NewPolygon(vs, meta)
		if !ok {
			continue
		}
		for i := range p.Vertices {
			p.Vertices[i].Normal = p.Plane.Normal
		}
		polys = append(polys, p)
	}
	return csg.Mesh[S]{Polygons: polys}, nil
}

// Octahedron returns the regular octahedron with vertices at distance r
// from the origin on each axis.
func Octahedron[S any](r float64, meta S) csg.Mesh[S] {
	if !(r > 0) {
		return csg.Mesh[S]{}
	}
	points := []v3.Vec{
		{X: r}, {X: -r}, {Y: r}, {Y: -r}, {Z: r}, {Z: -r},
	}
	faces := [][]int{
		{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
		{5, 2, 0}, {5, 1, 2}, {5, 3, 1}, {5, 0, 3},
	}
	m, _ := Polyhedron(points, faces, meta)
	return m
}

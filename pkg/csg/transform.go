package csg

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/csgbsp/pkg/geom"
)

// Transform applies the affine matrix mat to every vertex. Normals follow
// the inverse transpose, and orientation-reversing matrices flip the
// polygons so the result still faces outward. Polygons that collapse are
// dropped.
func (m Mesh[S]) Transform(mat sdf.M44) Mesh[S] {
	return m.mapPositions(mat.MulPosition)
}

// Translate moves the mesh by d.
func (m Mesh[S]) Translate(d v3.Vec) Mesh[S] {
	return m.Transform(sdf.Translate3d(d))
}

// Rotate rotates the mesh by Euler angles in degrees, X first, then Y,
// then Z.
func (m Mesh[S]) Rotate(deg v3.Vec) Mesh[S] {
	rad := deg.MulScalar(math.Pi / 180)
	return m.Transform(sdf.RotateZ(rad.Z).Mul(sdf.RotateY(rad.Y)).Mul(sdf.RotateX(rad.X)))
}

// Scale scales the mesh about the origin. Negative factors mirror it.
func (m Mesh[S]) Scale(f v3.Vec) Mesh[S] {
	return m.Transform(sdf.Scale3d(f))
}

// Mirror reflects the mesh across pl.
func (m Mesh[S]) Mirror(pl geom.Plane) Mesh[S] {
	n2 := pl.Normal.Dot(pl.Normal)
	if n2 == 0 {
		return m.Clone()
	}
	return m.mapPositions(func(p v3.Vec) v3.Vec {
		d := (pl.Normal.Dot(p) - pl.Offset) / n2
		return p.Sub(pl.Normal.MulScalar(2 * d))
	})
}

// mapPositions applies the affine map f to every vertex.
func (m Mesh[S]) mapPositions(f func(v3.Vec) v3.Vec) Mesh[S] {
	origin := f(v3.Vec{})
	linear := func(v v3.Vec) v3.Vec { return f(v).Sub(origin) }
	reversed := linear(v3.Vec{X: 1}).Dot(linear(v3.Vec{Y: 1}).Cross(linear(v3.Vec{Z: 1}))) < 0

	out := Mesh[S]{Polygons: make([]geom.Polygon[S], 0, len(m.Polygons))}
	for _, p := range m.Polygons {
		vs := make([]geom.Vertex, len(p.Vertices))
		for i, v := range p.Vertices {
			vs[i] = geom.NewVertex(f(v.Pos), transformNormal(v.Normal, linear))
		}
		q, ok := geom.NewPolygon(vs, p.Metadata)
		if !ok {
			continue
		}
		if reversed {
			q.Flip()
		}
		out.Polygons = append(out.Polygons, q)
	}
	return out
}

// transformNormal maps n through the linear map l as the cross product of
// two mapped tangents, which equals det(l)·l⁻ᵀn up to length. Callers flip
// polygons when det(l) is negative, which restores the sign.
func transformNormal(n v3.Vec, l func(v3.Vec) v3.Vec) v3.Vec {
	length := n.Length()
	if length < geom.Epsilon {
		return n
	}
	n = n.DivScalar(length)
	axis := v3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		axis = v3.Vec{Y: 1}
	}
	t1 := axis.Cross(n).Normalize()
	t2 := n.Cross(t1)
	out := l(t1).Cross(l(t2))
	if out.Length() < geom.Epsilon {
		return v3.Vec{}
	}
	return out.Normalize()
}

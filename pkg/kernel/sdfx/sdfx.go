// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library, and bridges signed distance
// fields into the polygon world of the BSP engine.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/csgbsp/pkg/csg"
	"github.com/chazu/csgbsp/pkg/geom"
	"github.com/chazu/csgbsp/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx. Cells is the number of
// marching cubes cells along the longest side of a solid's bounding box.
type SdfxKernel struct {
	Cells int
}

// New returns a new SdfxKernel with DefaultMeshCells.
func New() *SdfxKernel {
	return &SdfxKernel{Cells: DefaultMeshCells}
}

// NewWithCells returns a kernel meshing with the given resolution.
func NewWithCells(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{Cells: cells}
}

// Unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func Unwrap(s kernel.Solid) (sdf.SDF3, error) {
	ss, ok := s.(*sdfxSolid)
	if !ok {
		return nil, fmt.Errorf("sdfx: unsupported solid type %T", s)
	}
	return ss.s, nil
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// Wrap creates a kernel.Solid from an sdf.SDF3.
func Wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions and its minimum corner at the
// origin. sdf.Box3D centers the box at the origin, so we translate by
// half-dimensions.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return Wrap(sdf.Transform3D(s, m))
}

// Cylinder creates a cylinder standing on the XY plane.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return Wrap(sdf.Transform3D(s, sdf.Translate3d(v3.Vec{Z: height / 2})))
}

// Sphere creates a sphere centred on the origin. The segments parameter is
// ignored.
func (k *SdfxKernel) Sphere(radius float64, segments int) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return Wrap(s)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return Wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return Wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return Wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return Wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return Wrap(sdf.Transform3D(unwrap(s), m))
}

// Scale scales a solid about the origin. Non-uniform factors distort the
// distance field, which marching cubes tolerates.
func (k *SdfxKernel) Scale(s kernel.Solid, x, y, z float64) kernel.Solid {
	return Wrap(sdf.Transform3D(unwrap(s), sdf.Scale3d(v3.Vec{X: x, Y: y, Z: z})))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3, err := Unwrap(s)
	if err != nil {
		return nil, err
	}
	out := &kernel.Mesh{}
	for _, tri := range render.ToTriangles(sdf3, marchingCubes(k.Cells)) {
		n := tri.Normal()
		out.AddTriangle(tri[0], tri[1], tri[2], n, n, n)
	}
	return out, nil
}

// Mesh extracts the surface of s as polygons the BSP engine can combine.
func (k *SdfxKernel) Mesh(s kernel.Solid, meta string) (csg.Mesh[string], error) {
	sdf3, err := Unwrap(s)
	if err != nil {
		return csg.Mesh[string]{}, err
	}
	return Polygonize(sdf3, k.Cells, meta), nil
}

func marchingCubes(cells int) render.Render3 {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return render.NewMarchingCubesUniform(cells)
}

// Polygonize runs marching cubes over s and returns one polygon per
// triangle, each carrying meta. Slivers that marching cubes produces at
// grid corners are dropped.
func Polygonize[S any](s sdf.SDF3, cells int, meta S) csg.Mesh[S] {
	var out csg.Mesh[S]
	for _, tri := range render.ToTriangles(s, marchingCubes(cells)) {
		n := tri.Normal()
		p, ok := geom.NewPolygon([]geom.Vertex{
			geom.NewVertex(tri[0], n),
			geom.NewVertex(tri[1], n),
			geom.NewVertex(tri[2], n),
		}, meta)
		if ok {
			out.Polygons = append(out.Polygons, p)
		}
	}
	return out
}

// Package bspkernel implements the kernel.Kernel interface on top of the
// BSP boolean engine in package csg. Solids are exact polygon meshes whose
// polygons carry the name of the primitive they came from.
package bspkernel

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/csgbsp/pkg/csg"
	"github.com/chazu/csgbsp/pkg/kernel"
	"github.com/chazu/csgbsp/pkg/shapes"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// defaultSegments is used when a caller passes fewer than three segments.
const defaultSegments = 32

// Solid is a polygon mesh.
type Solid struct {
	Mesh csg.Mesh[string]
}

// BoundingBox returns the axis-aligned bounding box.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	bb := s.Mesh.BoundingBox()
	return [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}, [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
}

// Kernel implements kernel.Kernel with BSP booleans.
type Kernel struct {
	opts csg.Options
}

// New returns a kernel running booleans with opts.
func New(opts csg.Options) *Kernel {
	return &Kernel{opts: opts}
}

// Options returns the boolean options the kernel was created with.
func (k *Kernel) Options() csg.Options {
	return k.opts
}

// Wrap turns a mesh into a solid usable with this kernel.
func Wrap(m csg.Mesh[string]) kernel.Solid {
	return &Solid{Mesh: m}
}

// MeshOf returns the polygon mesh behind s.
func MeshOf(s kernel.Solid) (csg.Mesh[string], error) {
	bs, ok := s.(*Solid)
	if !ok {
		return csg.Mesh[string]{}, fmt.Errorf("bspkernel: unsupported solid type %T", s)
	}
	return bs.Mesh, nil
}

func unwrap(s kernel.Solid) csg.Mesh[string] {
	return s.(*Solid).Mesh
}

func segmentsOrDefault(n int) int {
	if n < 3 {
		return defaultSegments
	}
	return n
}

// Box creates a box with its minimum corner at the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return Wrap(shapes.Cuboid(x, y, z, "box"))
}

// Cylinder creates a cylinder standing on the XY plane.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	return Wrap(shapes.Cylinder(radius, height, segmentsOrDefault(segments), "cylinder"))
}

// Sphere creates a UV sphere with half as many stacks as segments.
func (k *Kernel) Sphere(radius float64, segments int) kernel.Solid {
	segments = segmentsOrDefault(segments)
	return Wrap(shapes.Sphere(radius, segments, max(segments/2, 2), "sphere"))
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return Wrap(csg.Union(unwrap(a), unwrap(b), k.opts))
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return Wrap(csg.Difference(unwrap(a), unwrap(b), k.opts))
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return Wrap(csg.Intersection(unwrap(a), unwrap(b), k.opts))
}

// Xor returns the symmetric difference directly, which is cheaper than the
// generic kernel.Xor composition.
func (k *Kernel) Xor(a, b kernel.Solid) kernel.Solid {
	return Wrap(csg.XOR(unwrap(a), unwrap(b), k.opts))
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return Wrap(unwrap(s).Translate(v3.Vec{X: x, Y: y, Z: z}))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return Wrap(unwrap(s).Rotate(v3.Vec{X: x, Y: y, Z: z}))
}

// Scale scales a solid about the origin.
func (k *Kernel) Scale(s kernel.Solid, x, y, z float64) kernel.Solid {
	return Wrap(unwrap(s).Scale(v3.Vec{X: x, Y: y, Z: z}))
}

// ToMesh fans every polygon into triangles, keeping per-vertex normals.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	m, err := MeshOf(s)
	if err != nil {
		return nil, err
	}
	out := &kernel.Mesh{}
	for _, p := range m.Polygons {
		for _, tri := range p.Triangulate() {
			out.AddTriangle(tri[0].Pos, tri[1].Pos, tri[2].Pos, tri[0].Normal, tri[1].Normal, tri[2].Normal)
		}
	}
	return out, nil
}

// Mesh returns the polygons of s with every polygon tagged meta.
func (k *Kernel) Mesh(s kernel.Solid, meta string) (csg.Mesh[string], error) {
	m, err := MeshOf(s)
	if err != nil {
		return csg.Mesh[string]{}, err
	}
	return m.SetMetadata(meta), nil
}

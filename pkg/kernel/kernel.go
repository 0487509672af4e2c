// Package kernel defines the abstract geometry kernel interface.
// Implementations (bspkernel, sdfx) provide solid modeling and boolean
// operations behind this interface, so scripts and tessellation do not
// depend on a particular solid representation.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
//
// Box has its minimum corner at the origin. Cylinder stands on the XY plane
// around the Z axis. Sphere is centred on the origin.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
	Scale(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Xor returns the parts of a and b that do not overlap, expressed with the
// three boolean primitives every kernel has.
func Xor(k Kernel, a, b Solid) Solid {
	return k.Difference(k.Union(a, b), k.Intersection(a, b))
}

// Part is a named solid produced by a design script.
type Part struct {
	Name  string
	Solid Solid
}

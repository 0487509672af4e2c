// Package geom holds the geometric payload of the BSP engine: vertices,
// planes and convex planar polygons, together with the orientation tests
// and the plane/polygon splitter every tree operation is built on.
//
// All tolerances are governed by the single constant Epsilon.
package geom

// Epsilon is the tolerance used by every orientation test and every guarded
// division in the engine.
const Epsilon = 1e-8

// Orientation classifies a point or polygon against a plane. A polygon's
// orientation is the bitwise OR of the orientations of its vertices, so a
// polygon with vertices on both sides ends up Spanning.
type Orientation int8

const (
	Coplanar Orientation = 0
	Front    Orientation = 1
	Back     Orientation = 2
	Spanning Orientation = Front | Back
)

func (o Orientation) String() string {
	switch o {
	case Coplanar:
		return "coplanar"
	case Front:
		return "front"
	case Back:
		return "back"
	case Spanning:
		return "spanning"
	default:
		return "unknown"
	}
}

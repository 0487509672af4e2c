package csg_test

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/csgbsp/pkg/bsp"
	"github.com/chazu/csgbsp/pkg/csg"
	"github.com/chazu/csgbsp/pkg/geom"
	"github.com/chazu/csgbsp/pkg/shapes"
)

const tol = 1e-9

func sequential() csg.Options {
	return csg.Options{Strategy: bsp.Balanced}
}

func parallel() csg.Options {
	return csg.Options{ParallelThreshold: 1, Pool: bsp.Pool{Workers: 4, MinChunk: 2}}
}

// overlapping returns two unit cubes, the second shifted half a unit along X.
func overlapping() (a, b csg.Mesh[string]) {
	a = shapes.Cube(1, "a")
	b = shapes.Cube(1, "b").Translate(v3.Vec{X: 0.5})
	return a, b
}

func TestTwoCubeScenario(t *testing.T) {
	a, b := overlapping()
	for _, opts := range []csg.Options{sequential(), parallel()} {
		union := csg.Union(a, b, opts)
		assert.InDelta(t, 1.5, union.Volume(), tol)
		assert.InDelta(t, 8, union.SurfaceArea(), tol)
		assert.Less(t, union.SurfaceArea(), a.SurfaceArea()+b.SurfaceArea())
		bb := union.BoundingBox()
		assert.InDelta(t, 0, bb.Min.X, tol)
		assert.InDelta(t, 1.5, bb.Max.X, tol)

		inter := csg.Intersection(a, b, opts)
		assert.InDelta(t, 0.5, inter.Volume(), tol)
		assert.InDelta(t, 4, inter.SurfaceArea(), tol)
		bb = inter.BoundingBox()
		assert.InDelta(t, 0.5, bb.Min.X, tol)
		assert.InDelta(t, 1, bb.Max.X, tol)
		assert.InDelta(t, 1, bb.Max.Y-bb.Min.Y, tol)
		assert.InDelta(t, 1, bb.Max.Z-bb.Min.Z, tol)

		diff := csg.Difference(a, b, opts)
		assert.InDelta(t, a.Volume()-inter.Volume(), diff.Volume(), tol)
		bb = diff.BoundingBox()
		assert.InDelta(t, 0.5, bb.Max.X, tol)

		xor := csg.XOR(a, b, opts)
		assert.InDelta(t, union.Volume()-inter.Volume(), xor.Volume(), tol)
	}
}

func TestUnionIsSymmetric(t *testing.T) {
	a, b := overlapping()
	ab := a.Union(b)
	ba := b.Union(a)
	assert.Len(t, ba.Polygons, len(ab.Polygons))
	assert.InDelta(t, ab.SurfaceArea(), ba.SurfaceArea(), tol)

	s := shapes.Sphere(0.8, 12, 6, "s")
	as, sa := a.Union(s), s.Union(a)
	assert.Len(t, sa.Polygons, len(as.Polygons))
	assert.InDelta(t, as.SurfaceArea(), sa.SurfaceArea(), tol)
}

func TestDifferenceWithSelfIsEmpty(t *testing.T) {
	for _, m := range []csg.Mesh[string]{
		shapes.Cube(1, "c"),
		shapes.Sphere(1, 12, 6, "s"),
		shapes.Cylinder(1, 2, 16, "y"),
	} {
		assert.Empty(t, m.Difference(m).Polygons)
		assert.Empty(t, csg.Difference(m, m, parallel()).Polygons)
	}
}

func TestSelfUnionAndIntersection(t *testing.T) {
	c := shapes.Cube(1, "c")
	assert.InDelta(t, 1, c.Union(c).Volume(), tol)
	assert.InDelta(t, 1, c.Intersection(c).Volume(), tol)
}

func TestVolumeIdentities(t *testing.T) {
	box := shapes.Cube(2, "box").Translate(v3.Vec{X: -1, Y: -1, Z: -1})
	ball := shapes.Sphere(1.2, 16, 8, "ball")

	inter := box.Intersection(ball)
	diff := box.Difference(ball)
	union := box.Union(ball)

	assert.InDelta(t, box.Volume(), diff.Volume()+inter.Volume(), tol)
	assert.InDelta(t, box.Volume()+ball.Volume(), union.Volume()+inter.Volume(), tol)
	assert.InDelta(t, ball.Volume()-inter.Volume(), ball.Difference(box).Volume(), tol)
	assert.InDelta(t, union.Volume()-inter.Volume(), box.XOR(ball).Volume(), tol)
}

func TestSequentialAndParallelAgree(t *testing.T) {
	box := shapes.Cube(2, "box").Translate(v3.Vec{X: -1, Y: -1, Z: -1})
	ball := shapes.Sphere(1.2, 24, 12, "ball")

	ops := map[string]func(a, b csg.Mesh[string], o csg.Options) csg.Mesh[string]{
		"union":        csg.Union[string],
		"difference":   csg.Difference[string],
		"intersection": csg.Intersection[string],
		"xor":          csg.XOR[string],
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			seq := op(box, ball, sequential())
			par := op(box, ball, parallel())
			require.Len(t, par.Polygons, len(seq.Polygons))
			want := seq.SurfaceArea()
			assert.LessOrEqual(t, math.Abs(want-par.SurfaceArea()), tol*want)
		})
	}
}

func TestEmptyOperands(t *testing.T) {
	var empty csg.Mesh[string]
	c := shapes.Cube(1, "c")

	assert.InDelta(t, 1, c.Union(empty).Volume(), tol)
	assert.InDelta(t, 1, empty.Union(c).Volume(), tol)
	assert.InDelta(t, 1, c.Difference(empty).Volume(), tol)
	assert.True(t, empty.Difference(c).IsEmpty())
	assert.True(t, c.Intersection(empty).IsEmpty())
	assert.True(t, empty.Intersection(c).IsEmpty())
	assert.InDelta(t, 1, c.XOR(empty).Volume(), tol)
	assert.True(t, empty.Union(empty).IsEmpty())
}

func TestDisjointOperands(t *testing.T) {
	a := shapes.Cube(1, "a")
	b := shapes.Cube(1, "b").Translate(v3.Vec{X: 3})
	assert.InDelta(t, 2, a.Union(b).Volume(), tol)
	assert.True(t, a.Intersection(b).IsEmpty())
	assert.InDelta(t, 1, a.Difference(b).Volume(), tol)
}

func TestMetadataSurvives(t *testing.T) {
	a, b := overlapping()
	seen := map[string]bool{}
	for _, p := range a.Union(b).Polygons {
		seen[p.Metadata] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)

	for _, p := range a.Difference(b).Polygons {
		assert.Contains(t, []string{"a", "b"}, p.Metadata)
	}
}

func TestInputsAreNotModified(t *testing.T) {
	a, b := overlapping()
	before := a.Clone()
	a.Union(b)
	a.Intersection(b)
	a.Difference(b)
	assert.Equal(t, before, a)
}

func allOps() map[string]func(a, b csg.Mesh[string], o csg.Options) csg.Mesh[string] {
	return map[string]func(a, b csg.Mesh[string], o csg.Options) csg.Mesh[string]{
		"union":        csg.Union[string],
		"difference":   csg.Difference[string],
		"intersection": csg.Intersection[string],
		"xor":          csg.XOR[string],
	}
}

// withJunk returns m with bad prepended, so a strategy that looks at the
// first polygons sees the junk first.
func withJunk(m csg.Mesh[string], bad ...geom.Polygon[string]) csg.Mesh[string] {
	return csg.Mesh[string]{Polygons: append(append([]geom.Polygon[string](nil), bad...), m.Polygons...)}
}

func TestMalformedPolygonsAreIgnored(t *testing.T) {
	n := v3.Vec{Z: 1}
	a := geom.NewVertex(v3.Vec{}, n)
	b := geom.NewVertex(v3.Vec{X: 1}, n)
	c := geom.NewVertex(v3.Vec{X: 2}, n)
	nan := geom.NewVertex(v3.Vec{X: math.NaN(), Y: 1}, n)

	junk := map[string]geom.Polygon[string]{
		"two vertices": {Vertices: []geom.Vertex{a, b}, Plane: geom.NewPlane(n, 0), Metadata: "junk"},
		"zero normal":  {Vertices: []geom.Vertex{a, b, c}, Metadata: "junk"},
		"nan vertex":   {Vertices: []geom.Vertex{a, b, nan}, Plane: geom.NewPlane(v3.Vec{Z: math.NaN()}, math.NaN()), Metadata: "junk"},
	}
	pairs := map[string]func() (csg.Mesh[string], csg.Mesh[string]){
		"overlapping": overlapping,
		"disjoint": func() (csg.Mesh[string], csg.Mesh[string]) {
			return shapes.Cube(1, "a"), shapes.Cube(1, "b").Translate(v3.Vec{X: 3})
		},
	}

	for junkName, bad := range junk {
		for pairName, pair := range pairs {
			for opName, op := range allOps() {
				t.Run(junkName+"/"+pairName+"/"+opName, func(t *testing.T) {
					x, y := pair()
					for _, opts := range []csg.Options{sequential(), parallel()} {
						clean := op(x, y, opts)
						var dirtyLeft, dirtyRight csg.Mesh[string]
						require.NotPanics(t, func() {
							dirtyLeft = op(withJunk(x, bad), y, opts)
							dirtyRight = op(x, withJunk(y, bad), opts)
						})
						for _, got := range []csg.Mesh[string]{dirtyLeft, dirtyRight} {
							assert.Len(t, got.Polygons, len(clean.Polygons))
							assert.InDelta(t, clean.Volume(), got.Volume(), tol)
						}
					}
				})
			}
		}
	}
}

func TestJunkSliverDoesNotEraseOperand(t *testing.T) {
	n := v3.Vec{Z: 1}
	sliver := geom.Polygon[string]{
		Vertices: []geom.Vertex{geom.NewVertex(v3.Vec{}, n), geom.NewVertex(v3.Vec{X: 1}, n)},
		Plane:    geom.NewPlane(n, 0),
		Metadata: "junk",
	}
	a := shapes.Cube(1, "a")
	b := withJunk(shapes.Cube(1, "b").Translate(v3.Vec{X: 3}), sliver)
	for _, opts := range []csg.Options{sequential(), parallel()} {
		assert.InDelta(t, 2, csg.Union(a, b, opts).Volume(), tol)
		assert.InDelta(t, 2, csg.Union(b, a, opts).Volume(), tol)
		assert.InDelta(t, 1, csg.Difference(a, b, opts).Volume(), tol)
		assert.True(t, csg.Intersection(a, b, opts).IsEmpty())
		assert.InDelta(t, 2, csg.XOR(a, b, opts).Volume(), tol)
	}
}

func TestOnlyJunkIsEmpty(t *testing.T) {
	n := v3.Vec{Z: 1}
	sliver := geom.Polygon[string]{
		Vertices: []geom.Vertex{geom.NewVertex(v3.Vec{}, n), geom.NewVertex(v3.Vec{X: 1}, n)},
		Plane:    geom.NewPlane(n, 0),
	}
	junk := withJunk(csg.Mesh[string]{}, sliver)
	c := shapes.Cube(1, "c")
	opts := sequential()

	assert.InDelta(t, 1, csg.Union(c, junk, opts).Volume(), tol)
	assert.InDelta(t, 1, csg.Difference(c, junk, opts).Volume(), tol)
	assert.True(t, csg.Intersection(c, junk, opts).IsEmpty())
	assert.True(t, csg.Intersection(junk, c, opts).IsEmpty())
	assert.True(t, csg.Difference(junk, c, opts).IsEmpty())
}

func TestOpenShellOperands(t *testing.T) {
	// Three faces of a cube bound no volume; the result is best effort but
	// every polygon stays a proper polygon.
	shell := csg.Mesh[string]{Polygons: shapes.Cube(1, "shell").Polygons[:3]}
	other := shapes.Cube(1, "c").Translate(v3.Vec{X: 0.5, Y: 0.25, Z: 0.25})
	for name, op := range allOps() {
		t.Run(name, func(t *testing.T) {
			for _, opts := range []csg.Options{sequential(), parallel()} {
				for _, operands := range [][2]csg.Mesh[string]{{shell, other}, {other, shell}, {shell, shell}} {
					var got csg.Mesh[string]
					require.NotPanics(t, func() { got = op(operands[0], operands[1], opts) })
					for _, p := range got.Polygons {
						assert.GreaterOrEqual(t, len(p.Vertices), 3)
						assert.False(t, p.Degenerate())
					}
				}
			}
		})
	}
}

func TestNestedOperands(t *testing.T) {
	big := shapes.Cube(4, "big")
	small := shapes.Cube(1, "small").Translate(v3.Vec{X: 1, Y: 1, Z: 1})
	for _, opts := range []csg.Options{sequential(), parallel()} {
		assert.InDelta(t, 64, csg.Union(big, small, opts).Volume(), tol)
		assert.InDelta(t, 64, csg.Union(small, big, opts).Volume(), tol)
		assert.InDelta(t, 1, csg.Intersection(big, small, opts).Volume(), tol)
		assert.InDelta(t, 63, csg.Difference(big, small, opts).Volume(), tol)
		assert.True(t, csg.Difference(small, big, opts).IsEmpty())
		assert.InDelta(t, 63, csg.XOR(big, small, opts).Volume(), tol)
	}
}

package geom

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPolygonOneSided(t *testing.T) {
	pl := NewPlane(v3.Vec{Z: 1}, 0)
	tests := []struct {
		name     string
		h        float64
		front    int
		back     int
		coplanar int
	}{
		{"front", 1, 1, 0, 0},
		{"back", -1, 0, 1, 0},
		{"touching from front", Epsilon / 2, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := square(t, tt.h, "x")
			var out Split[string]
			SplitPolygon(pl, p, &out)
			assert.Len(t, out.Front, tt.front)
			assert.Len(t, out.Back, tt.back)
			assert.Len(t, out.CoplanarFront, tt.coplanar)
			assert.Empty(t, out.CoplanarBack)
			if tt.front == 1 {
				assert.Equal(t, p, out.Front[0], "one-sided polygons pass through unchanged")
			}
			if tt.back == 1 {
				assert.Equal(t, p, out.Back[0], "one-sided polygons pass through unchanged")
			}
		})
	}
}

func TestSplitPolygonCoplanarBuckets(t *testing.T) {
	pl := NewPlane(v3.Vec{Z: 1}, 0)
	up := square(t, 0, "")
	down := up.Clone()
	down.Flip()

	var out Split[string]
	SplitPolygon(pl, up, &out)
	SplitPolygon(pl, down, &out)
	require.Len(t, out.CoplanarFront, 1)
	require.Len(t, out.CoplanarBack, 1)
	assert.Equal(t, up, out.CoplanarFront[0])
	assert.Equal(t, down, out.CoplanarBack[0])
	assert.Equal(t, 2, out.Len())
}

func TestSplitPolygonSpanning(t *testing.T) {
	// The unit square in z=0 cut by x=0.25.
	pl := NewPlane(v3.Vec{X: 1}, 0.25)
	p := square(t, 0, "meta")

	var out Split[string]
	SplitPolygon(pl, p, &out)
	require.Len(t, out.Front, 1)
	require.Len(t, out.Back, 1)
	assert.Empty(t, out.CoplanarFront)
	assert.Empty(t, out.CoplanarBack)

	front, back := out.Front[0], out.Back[0]
	assert.GreaterOrEqual(t, len(front.Vertices), 3)
	assert.GreaterOrEqual(t, len(back.Vertices), 3)
	for _, v := range front.Vertices {
		assert.NotEqual(t, Back, pl.OrientPoint(v.Pos))
	}
	for _, v := range back.Vertices {
		assert.NotEqual(t, Front, pl.OrientPoint(v.Pos))
	}
	assert.InDelta(t, 0.75, front.Area(), 1e-12)
	assert.InDelta(t, 0.25, back.Area(), 1e-12)
	assert.Equal(t, "meta", front.Metadata)
	assert.Equal(t, "meta", back.Metadata)

	// Both fragments keep the parent's winding.
	for _, frag := range []Polygon[string]{front, back} {
		fitted, ok := PlaneFromVertices(frag.Vertices)
		require.True(t, ok)
		assert.InDelta(t, 1, fitted.Normal.Dot(p.Plane.Normal), 1e-12)
	}
}

func TestSplitPolygonThroughVertices(t *testing.T) {
	// The diagonal x=y passes through two corners; the crossing edges never
	// straddle the plane, so no vertex is fabricated.
	pl, ok := PlaneFromPoints(v3.Vec{}, v3.Vec{Z: 1}, v3.Vec{X: 1, Y: 1})
	require.True(t, ok)
	p := square(t, 0, "")

	var out Split[string]
	SplitPolygon(pl, p, &out)
	require.Len(t, out.Front, 1)
	require.Len(t, out.Back, 1)
	assert.Len(t, out.Front[0].Vertices, 3)
	assert.Len(t, out.Back[0].Vertices, 3)
	assert.InDelta(t, 0.5, out.Front[0].Area(), 1e-12)
	assert.InDelta(t, 0.5, out.Back[0].Area(), 1e-12)
}

func TestSplitMergeIsAssociative(t *testing.T) {
	pl := NewPlane(v3.Vec{X: 1}, 0.5)
	var a, b, c Split[string]
	SplitPolygon(pl, square(t, 0, "a"), &a)
	SplitPolygon(pl, square(t, 1, "b"), &b)
	SplitPolygon(pl, square(t, 2, "c"), &c)

	left := Split[string]{}
	left.Merge(a)
	left.Merge(b)
	left.Merge(c)

	bc := Split[string]{}
	bc.Merge(b)
	bc.Merge(c)
	right := Split[string]{}
	right.Merge(a)
	right.Merge(bc)

	assert.Equal(t, left, right)
	assert.Equal(t, 6, left.Len())
}

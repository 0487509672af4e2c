// Package quality measures the triangles of a polygon mesh and checks how
// its faces are connected.
//
// Shape metrics follow the usual finite element definitions: the aspect
// ratio is the circumradius over twice the inradius (1 for an equilateral
// triangle), and a sliver is a triangle with an interior angle below
// SliverAngle. Connectivity is computed on welded vertices, so meshes whose
// faces do not share vertex storage (marching cubes output, kernel.Mesh)
// are handled the same way as indexed ones.
package quality

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"

	"github.com/chazu/csgbsp/pkg/geom"
	"github.com/chazu/csgbsp/pkg/kernel"
)

const (
	// SliverAngle is the minimum interior angle, in radians, below which a
	// triangle counts as a sliver.
	SliverAngle = 10 * math.Pi / 180

	// HighQuality is the score above which a triangle is considered good.
	HighQuality = 0.7

	// DefaultWeldTolerance is the distance under which two vertices are
	// treated as the same point.
	DefaultWeldTolerance = 1e-6
)

// Triangle holds the shape metrics of one triangle. Angles are in radians.
type Triangle struct {
	Area        float64
	MinAngle    float64
	MaxAngle    float64
	EdgeRatio   float64 // longest edge over shortest edge
	AspectRatio float64
	Score       float64 // 0 (degenerate) to 1 (equilateral)
}

// Degenerate reports whether the triangle has no usable area.
func (t Triangle) Degenerate() bool {
	return t.Area == 0
}

// Sliver reports whether the triangle has an angle below SliverAngle.
func (t Triangle) Sliver() bool {
	return t.MinAngle < SliverAngle
}

var degenerate = Triangle{AspectRatio: math.Inf(1), EdgeRatio: math.Inf(1)}

// AnalyzeTriangle computes the metrics of the triangle (a, b, c).
func AnalyzeTriangle(a, b, c v3.Vec) Triangle {
	ab, bc, ca := b.Sub(a), c.Sub(b), a.Sub(c)
	lab, lbc, lca := ab.Length(), bc.Length(), ca.Length()
	shortest := math.Min(lab, math.Min(lbc, lca))
	longest := math.Max(lab, math.Max(lbc, lca))
	if shortest < geom.Epsilon {
		return degenerate
	}

	area := 0.5 * ab.Cross(ca.Neg()).Length()
	if area < geom.Epsilon*geom.Epsilon {
		t := degenerate
		t.EdgeRatio = longest / shortest
		return t
	}

	// Angles opposite each edge, by the law of cosines.
	angle := func(opp, s1, s2 float64) float64 {
		cos := (s1*s1 + s2*s2 - opp*opp) / (2 * s1 * s2)
		return math.Acos(math.Max(-1, math.Min(1, cos)))
	}
	angles := []float64{angle(lbc, lab, lca), angle(lca, lab, lbc), angle(lab, lbc, lca)}

	semi := (lab + lbc + lca) / 2
	circum := lab * lbc * lca / (4 * area)
	in := area / semi

	t := Triangle{
		Area:        area,
		MinAngle:    lo.Min(angles),
		MaxAngle:    lo.Max(angles),
		EdgeRatio:   longest / shortest,
		AspectRatio: circum / (2 * in),
	}
	angleQ := math.Min(t.MinAngle/(math.Pi/6), 1)
	shapeQ := math.Min(1/t.AspectRatio, 1)
	edgeQ := math.Min(3/t.EdgeRatio, 1)
	t.Score = math.Max(0, math.Min(1, 0.4*angleQ+0.4*shapeQ+0.2*edgeQ))
	return t
}

// Report summarises a mesh.
type Report struct {
	Triangles        int
	Area             float64
	MinAngle         float64 // radians, over all non-degenerate triangles
	WorstAspect      float64
	Slivers          int
	Degenerate       int
	MeanScore        float64
	MinScore         float64
	HighQualityRatio float64

	MeanEdge   float64
	EdgeStdDev float64

	// Vertices is the number of distinct positions after welding.
	Vertices int
	// Edges is the number of distinct welded edges.
	Edges            int
	BoundaryEdges    int // used by one face
	NonManifoldEdges int // used by more than two faces
}

// Closed reports whether every edge is shared by exactly two faces.
//
// BSP boolean results often contain T-junctions where a face edge ends in
// the middle of a neighbour's edge. Such meshes are solid but not closed in
// this sense.
func (r Report) Closed() bool {
	return r.Triangles > 0 && r.BoundaryEdges == 0 && r.NonManifoldEdges == 0
}

// Analyze reports on a polygon list. Polygons are fanned into triangles for
// the shape metrics; connectivity uses the polygon outlines.
func Analyze[S any](polys []geom.Polygon[S]) Report {
	faces := lo.Map(polys, func(p geom.Polygon[S], _ int) []v3.Vec {
		return lo.Map(p.Vertices, func(v geom.Vertex, _ int) v3.Vec { return v.Pos })
	})
	return analyze(faces, DefaultWeldTolerance)
}

// AnalyzeMesh reports on a triangle mesh as produced by a kernel.
func AnalyzeMesh(m *kernel.Mesh) Report {
	if m == nil {
		return Report{}
	}
	at := func(i uint32) v3.Vec {
		return v3.Vec{
			X: float64(m.Vertices[3*i]),
			Y: float64(m.Vertices[3*i+1]),
			Z: float64(m.Vertices[3*i+2]),
		}
	}
	faces := make([][]v3.Vec, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		faces = append(faces, []v3.Vec{at(m.Indices[i]), at(m.Indices[i+1]), at(m.Indices[i+2])})
	}
	// float32 storage loses precision, so weld a little more generously.
	return analyze(faces, 1e-4)
}

func analyze(faces [][]v3.Vec, tol float64) Report {
	var r Report
	var tris []Triangle
	for _, f := range faces {
		for i := 1; i+1 < len(f); i++ {
			tris = append(tris, AnalyzeTriangle(f[0], f[i], f[i+1]))
		}
	}
	r.Triangles = len(tris)
	if r.Triangles == 0 {
		return r
	}

	good := lo.Filter(tris, func(t Triangle, _ int) bool { return !t.Degenerate() })
	r.Degenerate = len(tris) - len(good)
	r.Area = lo.SumBy(tris, func(t Triangle) float64 { return t.Area })
	r.MeanScore = lo.SumBy(tris, func(t Triangle) float64 { return t.Score }) / float64(len(tris))
	r.MinScore = lo.MinBy(tris, func(a, b Triangle) bool { return a.Score < b.Score }).Score
	r.HighQualityRatio = float64(lo.CountBy(tris, func(t Triangle) bool { return t.Score > HighQuality })) / float64(len(tris))
	r.Slivers = lo.CountBy(tris, Triangle.Sliver)
	if len(good) > 0 {
		r.MinAngle = lo.MinBy(good, func(a, b Triangle) bool { return a.MinAngle < b.MinAngle }).MinAngle
		r.WorstAspect = lo.MaxBy(good, func(a, b Triangle) bool { return a.AspectRatio > b.AspectRatio }).AspectRatio
	} else {
		r.WorstAspect = math.Inf(1)
	}

	var lengths []float64
	for _, f := range faces {
		for i := range f {
			lengths = append(lengths, f[(i+1)%len(f)].Sub(f[i]).Length())
		}
	}
	r.MeanEdge, r.EdgeStdDev = meanStdDev(lengths)

	connectivity(&r, faces, tol)
	return r
}

func meanStdDev(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean = lo.Sum(xs) / float64(len(xs))
	if len(xs) == 1 {
		return mean, 0
	}
	ss := lo.SumBy(xs, func(x float64) float64 { return (x - mean) * (x - mean) })
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}

type edge struct{ a, b int }

func connectivity(r *Report, faces [][]v3.Vec, tol float64) {
	w := NewWelder(tol)
	uses := map[edge]int{}
	for _, f := range faces {
		ids := lo.Map(f, func(p v3.Vec, _ int) int { return w.ID(p) })
		for i := range ids {
			a, b := ids[i], ids[(i+1)%len(ids)]
			if a == b {
				continue
			}
			if a > b {
				a, b = b, a
			}
			uses[edge{a, b}]++
		}
	}
	r.Vertices = w.Len()
	r.Edges = len(uses)
	for _, n := range uses {
		switch {
		case n == 1:
			r.BoundaryEdges++
		case n > 2:
			r.NonManifoldEdges++
		}
	}
}

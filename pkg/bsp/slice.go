package bsp

import (
	"math"

	"github.com/samber/lo"

	"github.com/chazu/csgbsp/pkg/geom"
)

// Segment is a line segment where a polygon crosses a slicing plane.
type Segment [2]geom.Vertex

// Slice cuts every polygon of the tree with pl. It returns the polygons lying
// in pl and one segment per polygon that crosses it. Vertices lying in pl
// count as crossing points, so cuts through corners are not lost.
func (n *Node[S]) Slice(pl geom.Plane) ([]geom.Polygon[S], []Segment) {
	var (
		coplanar []geom.Polygon[S]
		segments []Segment
	)
	for _, p := range n.AllPolygons() {
		count := len(p.Vertices)
		if count < 3 {
			continue
		}
		types := make([]geom.Orientation, count)
		var kind geom.Orientation
		for i, v := range p.Vertices {
			types[i] = pl.OrientPoint(v.Pos)
			kind |= types[i]
		}
		switch kind {
		case geom.Coplanar:
			coplanar = append(coplanar, p)
		case geom.Spanning:
			var crossings []geom.Vertex
			for i := 0; i < count; i++ {
				j := (i + 1) % count
				if types[i] == geom.Coplanar {
					crossings = append(crossings, p.Vertices[i])
					continue
				}
				if types[i]|types[j] != geom.Spanning {
					continue
				}
				vi, vj := p.Vertices[i], p.Vertices[j]
				denom := pl.Normal.Dot(vj.Pos.Sub(vi.Pos))
				if math.Abs(denom) <= geom.Epsilon {
					continue
				}
				t := (pl.Offset - pl.Normal.Dot(vi.Pos)) / denom
				crossings = append(crossings, vi.Interpolate(vj, t))
			}
			for _, pair := range lo.Chunk(crossings, 2) {
				if len(pair) == 2 {
					segments = append(segments, Segment{pair[0], pair[1]})
				}
			}
		}
	}
	return coplanar, segments
}

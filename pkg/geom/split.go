package geom

import "math"

// Split collects the four outputs of SplitPolygon. A zero Split is ready to
// use, and a Split may accumulate the results of many calls.
type Split[S any] struct {
	CoplanarFront []Polygon[S]
	CoplanarBack  []Polygon[S]
	Front         []Polygon[S]
	Back          []Polygon[S]
}

// Merge appends every bucket of other onto s. Merging is associative, which
// is what lets independently computed chunks be reduced in any grouping.
func (s *Split[S]) Merge(other Split[S]) {
	s.CoplanarFront = append(s.CoplanarFront, other.CoplanarFront...)
	s.CoplanarBack = append(s.CoplanarBack, other.CoplanarBack...)
	s.Front = append(s.Front, other.Front...)
	s.Back = append(s.Back, other.Back...)
}

// Len returns the number of polygons across all buckets.
func (s *Split[S]) Len() int {
	return len(s.CoplanarFront) + len(s.CoplanarBack) + len(s.Front) + len(s.Back)
}

// SplitPolygon classifies poly against pl and appends it, or its pieces, to out.
//
// Coplanar polygons go to CoplanarFront when their normal agrees with pl's
// and to CoplanarBack otherwise. Polygons entirely on one side are appended
// unchanged. Spanning polygons are cut along pl: every vertex is kept on its
// own side (coplanar vertices on both), and each edge crossing the plane
// contributes the crossing point to both fragments, so both keep the
// original winding. Fragments left with fewer than three vertices or no area
// are dropped.
func SplitPolygon[S any](pl Plane, poly Polygon[S], out *Split[S]) {
	var buf [16]Orientation
	types := buf[:0]
	var kind Orientation
	for _, v := range poly.Vertices {
		o := pl.OrientPoint(v.Pos)
		types = append(types, o)
		kind |= o
	}

	switch kind {
	case Coplanar:
		if pl.Normal.Dot(poly.Plane.Normal) > 0 {
			out.CoplanarFront = append(out.CoplanarFront, poly)
		} else {
			out.CoplanarBack = append(out.CoplanarBack, poly)
		}
	case Front:
		out.Front = append(out.Front, poly)
	case Back:
		out.Back = append(out.Back, poly)
	default:
		n := len(poly.Vertices)
		front := make([]Vertex, 0, n+1)
		back := make([]Vertex, 0, n+1)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.Vertices[i], poly.Vertices[j]

			if ti != Back {
				front = append(front, vi)
			}
			if ti != Front {
				back = append(back, vi)
			}
			if ti|tj != Spanning {
				continue
			}
			denom := pl.Normal.Dot(vj.Pos.Sub(vi.Pos))
			if math.Abs(denom) <= Epsilon {
				continue
			}
			t := (pl.Offset - pl.Normal.Dot(vi.Pos)) / denom
			v := vi.Interpolate(vj, t)
			front = append(front, v)
			back = append(back, v)
		}
		if p, ok := fragment(front, poly); ok {
			out.Front = append(out.Front, p)
		}
		if p, ok := fragment(back, poly); ok {
			out.Back = append(out.Back, p)
		}
	}
}

package quality

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
)

type weldPoint struct {
	id   int
	pos  v3.Vec
	rect rtreego.Rect
}

func (p *weldPoint) Bounds() rtreego.Rect {
	return p.rect
}

func point(v v3.Vec) rtreego.Point {
	return rtreego.Point{v.X, v.Y, v.Z}
}

// Welder assigns the same id to positions closer than its tolerance. Ids
// are dense and handed out in first-seen order.
type Welder struct {
	tol  float64
	tree *rtreego.Rtree
	n    int
}

// NewWelder returns a welder that merges points within tol of each other.
// A non-positive tol uses DefaultWeldTolerance.
func NewWelder(tol float64) *Welder {
	if tol <= 0 {
		tol = DefaultWeldTolerance
	}
	return &Welder{tol: tol, tree: rtreego.NewTree(3, 25, 50)}
}

// ID returns the id of p, registering it when no earlier point is close.
// When several earlier points qualify the oldest wins.
func (w *Welder) ID(p v3.Vec) int {
	best := -1
	for _, s := range w.tree.SearchIntersect(point(p).ToRect(w.tol)) {
		wp := s.(*weldPoint)
		if wp.pos.Sub(p).Length() > w.tol {
			continue
		}
		if best < 0 || wp.id < best {
			best = wp.id
		}
	}
	if best >= 0 {
		return best
	}
	wp := &weldPoint{id: w.n, pos: p, rect: point(p).ToRect(w.tol)}
	w.tree.Insert(wp)
	w.n++
	return wp.id
}

// Len returns the number of distinct points seen so far.
func (w *Welder) Len() int {
	return w.n
}

package bsp

import (
	"math"
	"strings"

	"github.com/chazu/csgbsp/pkg/geom"
)

// Strategy selects how a node picks its splitting plane from the polygons it
// is built from. It affects tree shape and output order, never the boolean
// result.
type Strategy int

const (
	// Balanced scores the first candidates by 8·spanning + |front−back| and
	// keeps the first minimum.
	Balanced Strategy = iota
	// FirstPolygon always splits on the first polygon's plane.
	FirstPolygon
	// LeastSplits minimises the number of spanning polygons, breaking ties by
	// balance.
	LeastSplits
)

const (
	balancedSample    = 20
	leastSplitsSample = 50
	spanWeight        = 8
)

var strategyNames = map[Strategy]string{
	Balanced:     "balanced",
	FirstPolygon: "first",
	LeastSplits:  "least-splits",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// StrategyFromName maps a configuration name onto a Strategy. Matching is
// case-insensitive; ok is false for unknown names.
func StrategyFromName(name string) (Strategy, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, true
		}
	}
	return Balanced, false
}

// pickPlane returns the index of the polygon whose plane should split polys.
// polys must not be empty.
func pickPlane[S any](s Strategy, polys []geom.Polygon[S]) int {
	switch s {
	case FirstPolygon:
		return 0
	case LeastSplits:
		return bestCandidate(polys, leastSplitsSample, func(front, back, spanning int) float64 {
			// Balance never exceeds len(polys), so scaling by it keeps the
			// spanning count dominant.
			return float64(spanning)*float64(len(polys)+1) + math.Abs(float64(front-back))
		})
	default:
		return bestCandidate(polys, balancedSample, func(front, back, spanning int) float64 {
			return spanWeight*float64(spanning) + math.Abs(float64(front-back))
		})
	}
}

func bestCandidate[S any](polys []geom.Polygon[S], sample int, score func(front, back, spanning int) float64) int {
	best, bestScore := 0, math.Inf(1)
	for i := 0; i < len(polys) && i < sample; i++ {
		if polys[i].Degenerate() {
			continue
		}
		pl := polys[i].Plane
		var front, back, spanning int
		for _, p := range polys {
			switch p.Classify(pl) {
			case geom.Front:
				front++
			case geom.Back:
				back++
			case geom.Spanning:
				spanning++
			}
		}
		if sc := score(front, back, spanning); sc < bestScore {
			best, bestScore = i, sc
		}
	}
	return best
}

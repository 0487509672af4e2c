package csg

import (
	"github.com/chazu/csgbsp/pkg/bsp"
	"github.com/chazu/csgbsp/pkg/geom"
)

// DefaultParallelThreshold is the combined operand polygon count from which
// booleans switch to the parallel tree primitives.
const DefaultParallelThreshold = 512

// Options controls how booleans build and combine their trees.
type Options struct {
	// ParallelThreshold selects the parallel primitives once both operands
	// together have at least this many polygons. Zero or less disables them.
	ParallelThreshold int
	Pool              bsp.Pool
	Strategy          bsp.Strategy
}

// DefaultOptions returns the options used by the Mesh methods.
func DefaultOptions() Options {
	return Options{
		ParallelThreshold: DefaultParallelThreshold,
		Pool:              bsp.DefaultPool(),
		Strategy:          bsp.Balanced,
	}
}

// primitives binds the four tree primitives to either the sequential or the
// parallel implementation.
type primitives[S any] struct {
	parallel bool
	pool     bsp.Pool
	strategy bsp.Strategy
}

func choose[S any](opts Options, a, b Mesh[S]) primitives[S] {
	n := len(a.Polygons) + len(b.Polygons)
	return primitives[S]{
		parallel: opts.ParallelThreshold > 0 && n >= opts.ParallelThreshold,
		pool:     opts.Pool,
		strategy: opts.Strategy,
	}
}

func (p primitives[S]) tree(polys []geom.Polygon[S]) *bsp.Node[S] {
	n := &bsp.Node[S]{Strategy: p.strategy}
	p.build(n, polys)
	return n
}

func (p primitives[S]) build(n *bsp.Node[S], polys []geom.Polygon[S]) {
	if p.parallel {
		n.BuildParallel(polys, p.pool)
		return
	}
	n.Build(polys)
}

func (p primitives[S]) clipTo(n, other *bsp.Node[S]) {
	if p.parallel {
		n.ClipToParallel(other, p.pool)
		return
	}
	n.ClipTo(other)
}

func (p primitives[S]) invert(n *bsp.Node[S]) {
	if p.parallel {
		n.InvertParallel(p.pool)
		return
	}
	n.Invert()
}

// union merges b into a. Both trees are consumed.
//
//	a.ClipTo(b); b.ClipTo(a); b.Invert(); b.ClipTo(a); b.Invert(); a.Build(b)
//
// The second clip, done on the inverted b, removes the faces of b that are
// coplanar with faces of a so shared boundaries are kept once.
func (p primitives[S]) union(a, b *bsp.Node[S]) {
	p.clipTo(a, b)
	p.clipTo(b, a)
	p.invert(b)
	p.clipTo(b, a)
	p.invert(b)
	p.build(a, b.AllPolygons())
}

// Union returns the solid covered by a or b.
func Union[S any](a, b Mesh[S], opts Options) Mesh[S] {
	a, b = a.usable(), b.usable()
	switch {
	case a.IsEmpty():
		return b.Clone()
	case b.IsEmpty():
		return a.Clone()
	}
	p := choose(opts, a, b)
	ta, tb := p.tree(a.Polygons), p.tree(b.Polygons)
	p.union(ta, tb)
	return Mesh[S]{Polygons: ta.AllPolygons()}
}

// Difference returns the solid covered by a and not by b: a is inverted,
// united with b and inverted back.
func Difference[S any](a, b Mesh[S], opts Options) Mesh[S] {
	a, b = a.usable(), b.usable()
	switch {
	case a.IsEmpty():
		return Mesh[S]{}
	case b.IsEmpty():
		return a.Clone()
	}
	p := choose(opts, a, b)
	ta, tb := p.tree(a.Polygons), p.tree(b.Polygons)
	p.invert(ta)
	p.union(ta, tb)
	p.invert(ta)
	return Mesh[S]{Polygons: ta.AllPolygons()}
}

// Intersection returns the solid covered by both a and b, the inverse of
// the union of the inverses:
//
//	a.Invert(); b.ClipTo(a); b.Invert(); a.ClipTo(b); b.ClipTo(a); a.Build(b); a.Invert()
func Intersection[S any](a, b Mesh[S], opts Options) Mesh[S] {
	a, b = a.usable(), b.usable()
	if a.IsEmpty() || b.IsEmpty() {
		return Mesh[S]{}
	}
	p := choose(opts, a, b)
	ta, tb := p.tree(a.Polygons), p.tree(b.Polygons)
	p.invert(ta)
	p.clipTo(tb, ta)
	p.invert(tb)
	p.clipTo(ta, tb)
	p.clipTo(tb, ta)
	p.build(ta, tb.AllPolygons())
	p.invert(ta)
	return Mesh[S]{Polygons: ta.AllPolygons()}
}

// XOR returns the solid covered by exactly one of a and b.
func XOR[S any](a, b Mesh[S], opts Options) Mesh[S] {
	return Union(Difference(a, b, opts), Difference(b, a, opts), opts)
}

// Union is Union(m, other, DefaultOptions()).
func (m Mesh[S]) Union(other Mesh[S]) Mesh[S] {
	return Union(m, other, DefaultOptions())
}

// Difference is Difference(m, other, DefaultOptions()).
func (m Mesh[S]) Difference(other Mesh[S]) Mesh[S] {
	return Difference(m, other, DefaultOptions())
}

// Intersection is Intersection(m, other, DefaultOptions()).
func (m Mesh[S]) Intersection(other Mesh[S]) Mesh[S] {
	return Intersection(m, other, DefaultOptions())
}

// XOR is XOR(m, other, DefaultOptions()).
func (m Mesh[S]) XOR(other Mesh[S]) Mesh[S] {
	return XOR(m, other, DefaultOptions())
}

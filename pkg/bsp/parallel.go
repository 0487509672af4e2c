package bsp

import (
	"runtime"

	"github.com/samber/lo"
	lop "github.com/samber/lo/parallel"

	"github.com/chazu/csgbsp/pkg/geom"
)

// Pool configures the data-parallel variants of the tree primitives.
//
// Only the per-node splitting step runs concurrently: a node's input list is
// cut into at most Workers chunks of at least MinChunk polygons, every chunk
// is split into private buckets, and the buckets are concatenated in chunk
// order. Tree traversal and child construction stay sequential.
type Pool struct {
	Workers  int
	MinChunk int
}

// DefaultPool uses one worker per usable CPU.
func DefaultPool() Pool {
	return Pool{Workers: runtime.GOMAXPROCS(0), MinChunk: 64}
}

func (p Pool) normalized() Pool {
	if p.Workers < 1 {
		p.Workers = 1
	}
	if p.MinChunk < 1 {
		p.MinChunk = 1
	}
	return p
}

// chunkSize returns the chunk length for n items, or 0 when n is too small
// to be worth splitting up.
func (p Pool) chunkSize(n int) int {
	p = p.normalized()
	if p.Workers == 1 || n < 2*p.MinChunk {
		return 0
	}
	size := (n + p.Workers - 1) / p.Workers
	return max(size, p.MinChunk)
}

func parallelSplit[S any](p Pool) splitFunc[S] {
	return func(pl geom.Plane, polys []geom.Polygon[S], out *geom.Split[S]) {
		size := p.chunkSize(len(polys))
		if size == 0 {
			splitSequential(pl, polys, out)
			return
		}
		parts := lop.Map(lo.Chunk(polys, size), func(chunk []geom.Polygon[S], _ int) geom.Split[S] {
			var s geom.Split[S]
			splitSequential(pl, chunk, &s)
			return s
		})
		*out = lo.Reduce(parts, func(acc geom.Split[S], part geom.Split[S], _ int) geom.Split[S] {
			acc.Merge(part)
			return acc
		}, *out)
	}
}

// BuildParallel is Build with the splitting step of every node spread over
// the pool. Children are still built one after the other.
func (n *Node[S]) BuildParallel(polys []geom.Polygon[S], pool Pool) {
	n.build(polys, parallelSplit[S](pool))
}

// ClipPolygonsParallel is ClipPolygons with parallel splitting. Coplanar
// polygons are routed by OrientPlane after the chunk results are merged.
func (n *Node[S]) ClipPolygonsParallel(polys []geom.Polygon[S], pool Pool) []geom.Polygon[S] {
	return n.clipPolygons(polys, parallelSplit[S](pool))
}

// ClipToParallel is ClipTo with parallel splitting inside every clip.
func (n *Node[S]) ClipToParallel(other *Node[S], pool Pool) {
	n.clipTo(other, parallelSplit[S](pool))
}

// InvertParallel is Invert with the polygons of large nodes flipped
// concurrently.
func (n *Node[S]) InvertParallel(pool Pool) {
	n.walk(func(node *Node[S]) {
		if size := pool.chunkSize(len(node.Polygons)); size > 0 {
			// Chunks alias node.Polygons, and each goroutine owns one chunk.
			lop.ForEach(lo.Chunk(node.Polygons, size), func(chunk []geom.Polygon[S], _ int) {
				for i := range chunk {
					chunk[i].Flip()
				}
			})
		} else {
			for i := range node.Polygons {
				node.Polygons[i].Flip()
			}
		}
		node.invertShallow()
	})
}

// Package bsp implements the binary space partitioning tree that the boolean
// operations in package csg are composed from.
//
// A Node owns its children exclusively. Every whole-tree walk uses an
// explicit work stack, so degenerate input that produces very deep trees
// cannot exhaust the goroutine stack.
package bsp

import (
	"github.com/chazu/csgbsp/pkg/geom"
)

// Node is one BSP tree node. A node without a Plane is empty. Polygons holds
// the polygons lying in Plane; Front and Back are nil until something is
// built into them.
type Node[S any] struct {
	Plane    *geom.Plane
	Front    *Node[S]
	Back     *Node[S]
	Polygons []geom.Polygon[S]

	// Strategy picks splitting planes during Build. Children inherit it.
	Strategy Strategy
}

// splitFunc splits every polygon of polys against pl into out.
type splitFunc[S any] func(pl geom.Plane, polys []geom.Polygon[S], out *geom.Split[S])

func splitSequential[S any](pl geom.Plane, polys []geom.Polygon[S], out *geom.Split[S]) {
	for _, p := range polys {
		geom.SplitPolygon(pl, p, out)
	}
}

// New returns an empty node using the Balanced strategy.
func New[S any]() *Node[S] {
	return &Node[S]{}
}

// FromPolygons builds a tree from polys with the Balanced strategy.
func FromPolygons[S any](polys []geom.Polygon[S]) *Node[S] {
	n := New[S]()
	n.Build(polys)
	return n
}

func (n *Node[S]) child() *Node[S] {
	return &Node[S]{Strategy: n.Strategy}
}

// Build inserts polys into the tree. An empty node first takes a splitting
// plane from polys; coplanar polygons stay at the node and the front and
// back fragments are built into children that are created on demand.
// Building into an already populated tree extends it. Degenerate polygons
// (see geom.Polygon.Degenerate) are dropped.
func (n *Node[S]) Build(polys []geom.Polygon[S]) {
	n.build(polys, splitSequential[S])
}

type task[S any] struct {
	node  *Node[S]
	polys []geom.Polygon[S]
}

func (n *Node[S]) build(polys []geom.Polygon[S], split splitFunc[S]) {
	// Fragments made by splitting are never degenerate, so filtering the
	// input once covers the whole build.
	stack := []task[S]{{n, geom.DropDegenerate(polys)}}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(t.polys) == 0 {
			continue
		}
		node, rest := t.node, t.polys

		if node.Plane == nil {
			// The polygon that supplies the plane is stored directly: it lies in
			// the plane by construction, and consuming it guarantees progress.
			k := pickPlane(node.Strategy, rest)
			pl := rest[k].Plane
			node.Plane = &pl
			node.Polygons = append(node.Polygons, rest[k])
			remaining := make([]geom.Polygon[S], 0, len(rest)-1)
			remaining = append(remaining, rest[:k]...)
			rest = append(remaining, rest[k+1:]...)
		}

		var out geom.Split[S]
		split(*node.Plane, rest, &out)
		node.Polygons = append(node.Polygons, out.CoplanarFront...)
		node.Polygons = append(node.Polygons, out.CoplanarBack...)

		if len(out.Back) > 0 {
			if node.Back == nil {
				node.Back = node.child()
			}
			stack = append(stack, task[S]{node.Back, out.Back})
		}
		if len(out.Front) > 0 {
			if node.Front == nil {
				node.Front = node.child()
			}
			stack = append(stack, task[S]{node.Front, out.Front})
		}
	}
}

// ClipPolygons removes the parts of polys that lie inside the solid this
// tree describes and returns what remains. Fragments reaching a missing
// front child are kept, fragments reaching a missing back child are
// discarded. Degenerate input polygons are dropped.
func (n *Node[S]) ClipPolygons(polys []geom.Polygon[S]) []geom.Polygon[S] {
	return n.clipPolygons(polys, splitSequential[S])
}

func (n *Node[S]) clipPolygons(polys []geom.Polygon[S], split splitFunc[S]) []geom.Polygon[S] {
	var result []geom.Polygon[S]
	stack := []task[S]{{n, geom.DropDegenerate(polys)}}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := t.node
		if node.Plane == nil {
			result = append(result, t.polys...)
			continue
		}
		if len(t.polys) == 0 {
			continue
		}

		var out geom.Split[S]
		split(*node.Plane, t.polys, &out)
		front, back := routeCoplanar(*node.Plane, &out)

		// Pushing back before front keeps the output in front-then-back order.
		if node.Back != nil && len(back) > 0 {
			stack = append(stack, task[S]{node.Back, back})
		}
		if node.Front != nil {
			stack = append(stack, task[S]{node.Front, front})
		} else {
			result = append(result, front...)
		}
	}
	return result
}

// routeCoplanar moves the coplanar buckets of out onto the side OrientPlane
// assigns them and returns the resulting front and back lists.
func routeCoplanar[S any](pl geom.Plane, out *geom.Split[S]) (front, back []geom.Polygon[S]) {
	front, back = out.Front, out.Back
	for _, bucket := range [][]geom.Polygon[S]{out.CoplanarFront, out.CoplanarBack} {
		for _, p := range bucket {
			if pl.OrientPlane(p.Plane) == geom.Front {
				front = append(front, p)
			} else {
				back = append(back, p)
			}
		}
	}
	return front, back
}

// ClipTo replaces the polygons of every node in n with other.ClipPolygons of
// them. other must not share nodes with n.
func (n *Node[S]) ClipTo(other *Node[S]) {
	n.clipTo(other, splitSequential[S])
}

func (n *Node[S]) clipTo(other *Node[S], split splitFunc[S]) {
	n.walk(func(node *Node[S]) {
		node.Polygons = other.clipPolygons(node.Polygons, split)
	})
}

// Invert turns the solid inside out: every polygon and plane is flipped and
// the children of every node are swapped. Inverting twice restores the tree.
func (n *Node[S]) Invert() {
	n.walk(func(node *Node[S]) {
		for i := range node.Polygons {
			node.Polygons[i].Flip()
		}
		node.invertShallow()
	})
}

func (n *Node[S]) invertShallow() {
	if n.Plane != nil {
		pl := n.Plane.Flip()
		n.Plane = &pl
	}
	n.Front, n.Back = n.Back, n.Front
}

// walk calls fn on every node, parents before children. fn may swap the
// children of the node it is given.
func (n *Node[S]) walk(fn func(*Node[S])) {
	stack := []*Node[S]{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(node)
		if node.Back != nil {
			stack = append(stack, node.Back)
		}
		if node.Front != nil {
			stack = append(stack, node.Front)
		}
	}
}

// AllPolygons returns the polygons of every node in pre-order: a node's own
// polygons, then its front subtree, then its back subtree.
func (n *Node[S]) AllPolygons() []geom.Polygon[S] {
	var result []geom.Polygon[S]
	n.walk(func(node *Node[S]) {
		result = append(result, node.Polygons...)
	})
	return result
}

// Clone returns a deep copy of the tree. Vertex slices are shared, which is
// safe because polygons never modify them in place.
func (n *Node[S]) Clone() *Node[S] {
	root := &Node[S]{}
	type pair struct{ src, dst *Node[S] }
	stack := []pair{{n, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p.dst.Strategy = p.src.Strategy
		if p.src.Plane != nil {
			pl := *p.src.Plane
			p.dst.Plane = &pl
		}
		if p.src.Polygons != nil {
			p.dst.Polygons = make([]geom.Polygon[S], len(p.src.Polygons))
			copy(p.dst.Polygons, p.src.Polygons)
		}
		if p.src.Front != nil {
			p.dst.Front = &Node[S]{}
			stack = append(stack, pair{p.src.Front, p.dst.Front})
		}
		if p.src.Back != nil {
			p.dst.Back = &Node[S]{}
			stack = append(stack, pair{p.src.Back, p.dst.Back})
		}
	}
	return root
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func (n *Node[S]) Depth() int {
	type entry struct {
		node  *Node[S]
		depth int
	}
	var deepest int
	stack := []entry{{n, 1}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.depth > deepest {
			deepest = e.depth
		}
		for _, c := range []*Node[S]{e.node.Front, e.node.Back} {
			if c != nil {
				stack = append(stack, entry{c, e.depth + 1})
			}
		}
	}
	return deepest
}

// NodeCount returns the number of nodes in the tree.
func (n *Node[S]) NodeCount() int {
	var count int
	n.walk(func(*Node[S]) { count++ })
	return count
}

// PolygonCount returns len(n.AllPolygons()) without building the list.
func (n *Node[S]) PolygonCount() int {
	var count int
	n.walk(func(node *Node[S]) { count += len(node.Polygons) })
	return count
}

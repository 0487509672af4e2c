package geom

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vertex is a polygon corner: a position and a (not necessarily unit) normal.
type Vertex struct {
	Pos    v3.Vec
	Normal v3.Vec
}

// NewVertex returns a vertex at pos with the given normal.
func NewVertex(pos, normal v3.Vec) Vertex {
	return Vertex{Pos: pos, Normal: normal}
}

// Interpolate blends position and normal linearly: t=0 yields v, t=1 yields other.
func (v Vertex) Interpolate(other Vertex, t float64) Vertex {
	return Vertex{
		Pos:    v.Pos.Add(other.Pos.Sub(v.Pos).MulScalar(t)),
		Normal: v.Normal.Add(other.Normal.Sub(v.Normal).MulScalar(t)),
	}
}

// Flip returns the vertex with its normal reversed.
func (v Vertex) Flip() Vertex {
	return Vertex{Pos: v.Pos, Normal: v.Normal.Neg()}
}

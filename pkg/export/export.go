// Package export writes polygon meshes and cross-sections to files: STL for
// solids, DXF for slices.
package export

import (
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/chazu/csgbsp/pkg/bsp"
	"github.com/chazu/csgbsp/pkg/geom"
)

// ErrEmpty is returned when there is nothing to write.
var ErrEmpty = errors.New("export: nothing to write")

// DXF layer names used by SaveSliceDXF.
const (
	SliceLayer    = "Slice"
	CoplanarLayer = "Coplanar"
)

// Triangles3 fans every polygon into sdfx triangles.
func Triangles3[S any](polys []geom.Polygon[S]) []*sdf.Triangle3 {
	var out []*sdf.Triangle3
	for _, p := range polys {
		for _, tri := range p.Triangulate() {
			out = append(out, &sdf.Triangle3{tri[0].Pos, tri[1].Pos, tri[2].Pos})
		}
	}
	return out
}

// SaveSTL writes polys as a binary STL file.
func SaveSTL[S any](path string, polys []geom.Polygon[S]) error {
	tris := Triangles3(polys)
	if len(tris) == 0 {
		return fmt.Errorf("export: %s: %w", path, ErrEmpty)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("export: writing STL %s: %w", path, err)
	}
	return nil
}

// SaveSliceDXF writes the segments of a cross-section as DXF lines. The
// outlines of polygons lying in the slicing plane, if any, go on a separate
// layer.
func SaveSliceDXF[S any](path string, coplanar []geom.Polygon[S], segments []bsp.Segment) error {
	if len(segments) == 0 && len(coplanar) == 0 {
		return fmt.Errorf("export: %s: %w", path, ErrEmpty)
	}
	d := dxf.NewDrawing()
	if _, err := d.AddLayer(CoplanarLayer, color.Red, dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("export: adding layer %s: %w", CoplanarLayer, err)
	}
	if _, err := d.AddLayer(SliceLayer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("export: adding layer %s: %w", SliceLayer, err)
	}

	for _, s := range segments {
		a, b := s[0].Pos, s[1].Pos
		if _, err := d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z); err != nil {
			return fmt.Errorf("export: slice segment: %w", err)
		}
	}

	if len(coplanar) > 0 {
		if err := d.ChangeLayer(CoplanarLayer); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		for _, p := range coplanar {
			for a, b := range p.Edges() {
				if _, err := d.Line(a.Pos.X, a.Pos.Y, a.Pos.Z, b.Pos.X, b.Pos.Y, b.Pos.Z); err != nil {
					return fmt.Errorf("export: coplanar outline: %w", err)
				}
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: writing DXF %s: %w", path, err)
	}
	return nil
}

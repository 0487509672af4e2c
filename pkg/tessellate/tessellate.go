// Package tessellate turns the parts of a design into triangle meshes
// using a geometry kernel. One mesh is produced per part.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/csgbsp/pkg/kernel"
)

// ErrNoSolid is returned for a part without geometry.
var ErrNoSolid = errors.New("tessellate: part has no solid")

// Tessellate produces one triangle mesh per part using the provided
// geometry kernel, in part order. Parts without a name are named after
// their position. The parts are never modified.
func Tessellate(parts []kernel.Part, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if len(parts) == 0 {
		return nil, nil
	}
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for i, p := range parts {
		name := PartName(p, i)
		if p.Solid == nil {
			return nil, fmt.Errorf("part %s: %w", name, ErrNoSolid)
		}
		mesh, err := k.ToMesh(p.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for part %s: %w", name, err)
		}
		mesh.PartName = name
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// PartName returns the part's name, or "part-<index>" when it has none.
func PartName(p kernel.Part, index int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("part-%d", index)
}

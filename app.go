package main

import (
	"fmt"
	"log"
	"math"

	"github.com/chazu/csgbsp/pkg/bsp"
	"github.com/chazu/csgbsp/pkg/config"
	"github.com/chazu/csgbsp/pkg/csg"
	"github.com/chazu/csgbsp/pkg/engine"
	"github.com/chazu/csgbsp/pkg/export"
	"github.com/chazu/csgbsp/pkg/geom"
	"github.com/chazu/csgbsp/pkg/kernel"
	"github.com/chazu/csgbsp/pkg/kernel/bspkernel"
	"github.com/chazu/csgbsp/pkg/kernel/sdfx"
	"github.com/chazu/csgbsp/pkg/quality"
	"github.com/chazu/csgbsp/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// mesher is implemented by kernels that can return the boundary polygons
// of a solid, which export and slicing work on.
type mesher interface {
	Mesh(s kernel.Solid, meta string) (csg.Mesh[string], error)
}

// App runs scripts end to end: evaluate, tessellate, analyse, export.
type App struct {
	cfg    config.Config
	engine *engine.Engine
	kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format of one part.
type MeshData struct {
	Vertices []float32   `json:"vertices"`
	Normals  []float32   `json:"normals"`
	Indices  []uint32    `json:"indices"`
	PartName string      `json:"partName"`
	Color    string      `json:"color"`
	Quality  QualityData `json:"quality"`
}

// QualityData summarises a part's triangle quality. Angles are in degrees.
type QualityData struct {
	Triangles        int     `json:"triangles"`
	Area             float64 `json:"area"`
	MinAngle         float64 `json:"minAngle"`
	Slivers          int     `json:"slivers"`
	MeanScore        float64 `json:"meanScore"`
	Closed           bool    `json:"closed"`
	BoundaryEdges    int     `json:"boundaryEdges"`
	NonManifoldEdges int     `json:"nonManifoldEdges"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`

	// Parts are the solids behind Meshes, for export.
	Parts []kernel.Part `json:"-"`
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	app, err := NewAppWithConfig(config.Default())
	if err != nil {
		// The defaults always validate.
		panic(err)
	}
	return app
}

// NewAppWithConfig creates an App using the kernel and settings in cfg.
func NewAppWithConfig(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var k kernel.Kernel
	switch cfg.Kernel {
	case config.KernelSDFX:
		k = sdfx.NewWithCells(cfg.SDF.Cells)
	default:
		k = bspkernel.New(cfg.CSGOptions())
	}
	eng := engine.NewEngine(k)
	eng.Timeout = cfg.Engine.Timeout
	return &App{cfg: cfg, engine: eng, kernel: k}, nil
}

// Config returns the settings the app runs with.
func (a *App) Config() config.Config {
	return a.cfg
}

// Evaluate takes script source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script into parts.
	parts, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Tessellate the parts into triangle meshes.
	meshes, err := tessellate.Tessellate(parts, a.kernel)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Convert kernel meshes and measure them.
	for i, m := range meshes {
		q := quality.AnalyzeMesh(m)
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
			Quality:  qualityData(q),
		})
		switch {
		case m.IsEmpty():
			result.Warnings = append(result.Warnings, EvalErrorData{
				Message: fmt.Sprintf("part %q has no geometry", m.PartName),
			})
		case q.NonManifoldEdges > 0:
			result.Warnings = append(result.Warnings, EvalErrorData{
				Message: fmt.Sprintf("part %q has %d non-manifold edges", m.PartName, q.NonManifoldEdges),
			})
		}
	}
	result.Parts = parts

	return result
}

func qualityData(r quality.Report) QualityData {
	return QualityData{
		Triangles:        r.Triangles,
		Area:             r.Area,
		MinAngle:         r.MinAngle * 180 / math.Pi,
		Slivers:          r.Slivers,
		MeanScore:        r.MeanScore,
		Closed:           r.Closed(),
		BoundaryEdges:    r.BoundaryEdges,
		NonManifoldEdges: r.NonManifoldEdges,
	}
}

// Polygons returns the boundary polygons of all parts, each tagged with its
// part name.
func (a *App) Polygons(parts []kernel.Part) ([]geom.Polygon[string], error) {
	m, ok := a.kernel.(mesher)
	if !ok {
		return nil, fmt.Errorf("kernel %T cannot export polygons", a.kernel)
	}
	var out []geom.Polygon[string]
	for i, p := range parts {
		name := tessellate.PartName(p, i)
		mesh, err := m.Mesh(p.Solid, name)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", name, err)
		}
		out = append(out, mesh.Polygons...)
	}
	return out, nil
}

// Export writes the files named in the export settings. It returns the
// paths written.
func (a *App) Export(parts []kernel.Part) ([]string, error) {
	ex := a.cfg.Export
	if ex.STL == "" && ex.DXF == "" {
		return nil, nil
	}
	polys, err := a.Polygons(parts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var written []string
	if ex.STL != "" {
		if err := export.SaveSTL(ex.STL, polys); err != nil {
			return written, err
		}
		written = append(written, ex.STL)
	}
	if ex.DXF != "" {
		tree := &bsp.Node[string]{Strategy: a.cfg.CSGOptions().Strategy}
		tree.Build(polys)
		coplanar, segments := tree.Slice(a.cfg.SlicePlane())
		if err := export.SaveSliceDXF(ex.DXF, coplanar, segments); err != nil {
			return written, err
		}
		written = append(written, ex.DXF)
	}
	return written, nil
}

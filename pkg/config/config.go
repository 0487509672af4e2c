// Package config loads the YAML settings file of the csgbsp command.
//
// A file only needs to name the settings it changes; everything else keeps
// the value from Default. Unknown keys are rejected so typos do not pass
// silently.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gopkg.in/yaml.v3"

	"github.com/chazu/csgbsp/pkg/bsp"
	"github.com/chazu/csgbsp/pkg/csg"
	"github.com/chazu/csgbsp/pkg/engine"
	"github.com/chazu/csgbsp/pkg/geom"
	"github.com/chazu/csgbsp/pkg/kernel/sdfx"
)

// Kernel names.
const (
	KernelBSP  = "bsp"
	KernelSDFX = "sdfx"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full settings tree.
type Config struct {
	Kernel   string   `yaml:"kernel"`
	Strategy string   `yaml:"strategy"`
	Parallel Parallel `yaml:"parallel"`
	SDF      SDF      `yaml:"sdf"`
	Engine   Engine   `yaml:"engine"`
	Export   Export   `yaml:"export"`
}

// Parallel controls when and how booleans use the parallel tree primitives.
// Workers 0 means one per CPU; Threshold 0 disables parallel execution.
type Parallel struct {
	Threshold int `yaml:"threshold"`
	Workers   int `yaml:"workers"`
	MinChunk  int `yaml:"min_chunk"`
}

// SDF configures the sdfx kernel.
type SDF struct {
	Cells int `yaml:"cells"`
}

// Engine configures script evaluation.
type Engine struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Export names the output files. Empty paths skip that output.
type Export struct {
	STL         string  `yaml:"stl"`
	DXF         string  `yaml:"dxf"`
	SliceAxis   string  `yaml:"slice_axis"`
	SliceOffset float64 `yaml:"slice_offset"`
}

// Default returns the built-in settings.
func Default() Config {
	pool := bsp.DefaultPool()
	return Config{
		Kernel:   KernelBSP,
		Strategy: bsp.Balanced.String(),
		Parallel: Parallel{
			Threshold: csg.DefaultParallelThreshold,
			MinChunk:  pool.MinChunk,
		},
		SDF:    SDF{Cells: sdfx.DefaultMeshCells},
		Engine: Engine{Timeout: engine.EvalTimeout},
		Export: Export{SliceAxis: "z"},
	}
}

// Load reads and validates the file at path on top of Default.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse is Decode over a byte slice.
func Parse(data []byte) (Config, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads YAML from r on top of Default and validates the result. An
// empty document yields the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	switch c.Kernel {
	case KernelBSP, KernelSDFX:
	default:
		bad("kernel %q, expected %q or %q", c.Kernel, KernelBSP, KernelSDFX)
	}
	if _, ok := bsp.StrategyFromName(c.Strategy); !ok {
		bad("unknown strategy %q", c.Strategy)
	}
	if c.Parallel.Threshold < 0 {
		bad("parallel.threshold must not be negative, got %d", c.Parallel.Threshold)
	}
	if c.Parallel.Workers < 0 {
		bad("parallel.workers must not be negative, got %d", c.Parallel.Workers)
	}
	if c.Parallel.MinChunk < 1 {
		bad("parallel.min_chunk must be at least 1, got %d", c.Parallel.MinChunk)
	}
	if c.SDF.Cells < 8 {
		bad("sdf.cells must be at least 8, got %d", c.SDF.Cells)
	}
	if c.Engine.Timeout <= 0 {
		bad("engine.timeout must be positive, got %s", c.Engine.Timeout)
	}
	if _, err := axisNormal(c.Export.SliceAxis); err != nil {
		bad("export.slice_axis: %v", err)
	}
	return errors.Join(errs...)
}

// CSGOptions maps the parallel and strategy settings onto boolean options.
// The configuration must be valid.
func (c Config) CSGOptions() csg.Options {
	strategy, _ := bsp.StrategyFromName(c.Strategy)
	pool := bsp.Pool{Workers: c.Parallel.Workers, MinChunk: c.Parallel.MinChunk}
	if pool.Workers == 0 {
		pool.Workers = bsp.DefaultPool().Workers
	}
	return csg.Options{
		ParallelThreshold: c.Parallel.Threshold,
		Pool:              pool,
		Strategy:          strategy,
	}
}

// SlicePlane returns the plane perpendicular to the slice axis at the slice
// offset. The configuration must be valid.
func (c Config) SlicePlane() geom.Plane {
	n, _ := axisNormal(c.Export.SliceAxis)
	return geom.NewPlane(n, c.Export.SliceOffset)
}

func axisNormal(axis string) (v3.Vec, error) {
	switch strings.ToLower(strings.TrimSpace(axis)) {
	case "x":
		return v3.Vec{X: 1}, nil
	case "y":
		return v3.Vec{Y: 1}, nil
	case "z":
		return v3.Vec{Z: 1}, nil
	}
	return v3.Vec{}, fmt.Errorf("axis %q, expected x, y or z", axis)
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chazu/csgbsp/pkg/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the whole command: parse flags, load settings, evaluate the script
// (a file argument, or stdin when absent or "-"), print a report per part and
// write the requested exports. It returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "csgbsp: ", 0)

	fs := flag.NewFlagSet("csgbsp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: csgbsp [flags] [script.csg]")
		fs.PrintDefaults()
	}

	var (
		cfgPath     = fs.String("config", "", "YAML settings file")
		kernelName  = fs.String("kernel", "", "geometry kernel: bsp or sdfx")
		strategy    = fs.String("strategy", "", "splitting plane strategy: balanced, first or least-splits")
		stlPath     = fs.String("stl", "", "write all parts to this binary STL file")
		dxfPath     = fs.String("dxf", "", "write a cross-section of all parts to this DXF file")
		sliceAxis   = fs.String("slice-axis", "", "cross-section axis: x, y or z")
		sliceOffset = fs.Float64("slice-offset", 0, "cross-section plane offset along the axis")
		workers     = fs.Int("workers", 0, "parallel workers, 0 for one per CPU")
		threshold   = fs.Int("threshold", 0, "polygon count from which booleans run in parallel, 0 disables")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 2
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			logger.Print(err)
			return 1
		}
	}

	// Flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "kernel":
			cfg.Kernel = *kernelName
		case "strategy":
			cfg.Strategy = *strategy
		case "stl":
			cfg.Export.STL = *stlPath
		case "dxf":
			cfg.Export.DXF = *dxfPath
		case "slice-axis":
			cfg.Export.SliceAxis = *sliceAxis
		case "slice-offset":
			cfg.Export.SliceOffset = *sliceOffset
		case "workers":
			cfg.Parallel.Workers = *workers
		case "threshold":
			cfg.Parallel.Threshold = *threshold
		}
	})

	app, err := NewAppWithConfig(cfg)
	if err != nil {
		logger.Print(err)
		return 1
	}

	source, err := readSource(fs.Arg(0), stdin)
	if err != nil {
		logger.Print(err)
		return 1
	}

	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			if e.Line > 0 {
				logger.Printf("line %d: %s", e.Line, e.Message)
			} else {
				logger.Print(e.Message)
			}
		}
		return 1
	}
	for _, w := range result.Warnings {
		logger.Printf("warning: %s", w.Message)
	}

	for _, m := range result.Meshes {
		q := m.Quality
		fmt.Fprintf(stdout, "%-16s %6d triangles  area %-12.6g min angle %6.2f°  slivers %d  closed %t\n",
			m.PartName, q.Triangles, q.Area, q.MinAngle, q.Slivers, q.Closed)
	}

	written, err := app.Export(result.Parts)
	for _, path := range written {
		fmt.Fprintf(stdout, "wrote %s\n", path)
	}
	if err != nil {
		logger.Print(err)
		return 1
	}
	return 0
}

func readSource(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/csgbsp/pkg/csg"
	"github.com/chazu/csgbsp/pkg/kernel"
	"github.com/chazu/csgbsp/pkg/kernel/bspkernel"
	"github.com/chazu/csgbsp/pkg/kernel/sdfx"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere 5 :segments 24)`,
			expect: `(sphere 5 "__kw_segments" 24)`,
		},
		{
			name:   "multiple keywords",
			input:  `(f :a 1 :b 2)`,
			expect: `(f "__kw_a" 1 "__kw_b" 2)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def wall-thickness 2)`,
			expect: `(def wall_thickness 2)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec3 0 -5 0)`,
			expect: `(vec3 0 -5 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:min-segments`,
			expect: `"__kw_min-segments"`,
		},
		{
			name:   "part name with hyphen untouched",
			input:  `(defpart "side-panel" (cube 1))`,
			expect: `(defpart "side-panel" (cube 1))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// mustEvaluate runs source and fails the test on any error.
func mustEvaluate(t *testing.T, eng *Engine, source string) []kernel.Part {
	t.Helper()
	parts, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return parts
}

func volume(t *testing.T, s kernel.Solid) float64 {
	t.Helper()
	m, err := bspkernel.MeshOf(s)
	if err != nil {
		t.Fatalf("MeshOf: %v", err)
	}
	return m.Volume()
}

func assertBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > 1e-6 || math.Abs(max[i]-wantMax[i]) > 1e-6 {
			t.Errorf("axis %d: bounds %g..%g, want %g..%g", i, min[i], max[i], wantMin[i], wantMax[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

func TestBoxPart(t *testing.T) {
	parts := mustEvaluate(t, newEngine(), `(defpart "shelf" (box 600 300 18))`)
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0].Name != "shelf" {
		t.Errorf("expected part named shelf, got %q", parts[0].Name)
	}
	assertBounds(t, parts[0].Solid, [3]float64{0, 0, 0}, [3]float64{600, 300, 18})
}

func TestBoxFromVec3(t *testing.T) {
	parts := mustEvaluate(t, newEngine(), `(defpart "b" (box (vec3 1 2 3)))`)
	assertBounds(t, parts[0].Solid, [3]float64{0, 0, 0}, [3]float64{1, 2, 3})
}

func TestVariableReference(t *testing.T) {
	source := `
(def t 18)
(def wall-width 200)
(defpart "side" (box 400 wall-width t))
`
	parts := mustEvaluate(t, newEngine(), source)
	assertBounds(t, parts[0].Solid, [3]float64{0, 0, 0}, [3]float64{400, 200, 18})
}

func TestRoundPrimitives(t *testing.T) {
	source := `
; keywords select the tessellation
(defpart "ball" (sphere 5 :segments 12))
(defpart "rod" (cylinder 2 10 :segments 8))
`
	parts := mustEvaluate(t, newEngine(), source)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}

	ball, err := bspkernel.MeshOf(parts[0].Solid)
	if err != nil {
		t.Fatal(err)
	}
	// 12 segments, 6 stacks.
	if len(ball.Polygons) != 72 {
		t.Errorf("sphere: expected 72 polygons, got %d", len(ball.Polygons))
	}

	rod, err := bspkernel.MeshOf(parts[1].Solid)
	if err != nil {
		t.Fatal(err)
	}
	if len(rod.Polygons) != 24 {
		t.Errorf("cylinder: expected 24 polygons, got %d", len(rod.Polygons))
	}
	min, max := parts[1].Solid.BoundingBox()
	if math.Abs(min[2]) > 1e-9 || math.Abs(max[2]-10) > 1e-9 {
		t.Errorf("cylinder z extent = %g..%g, want 0..10", min[2], max[2])
	}
}

// ---------------------------------------------------------------------------
// Booleans
// ---------------------------------------------------------------------------

func TestBooleanForms(t *testing.T) {
	tests := []struct {
		op   string
		want float64
	}{
		{"union", 1500},
		{"difference", 500},
		{"intersection", 500},
		{"xor", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			source := `(defpart "p" (` + tt.op + ` (cube 10) (translate (cube 10) (vec3 5 0 0))))`
			parts := mustEvaluate(t, newEngine(), source)
			if got := volume(t, parts[0].Solid); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("volume = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestBooleanFoldsManyOperands(t *testing.T) {
	source := `
(defpart "row"
  (union (cube 10)
         (translate (cube 10) (vec3 20 0 0))
         (translate (cube 10) (vec3 40 0 0))))
(defpart "notched"
  (difference (cube 10)
              (translate (cube 2) (vec3 -1 -1 -1))
              (translate (cube 2) (vec3 9 9 9))))
`
	parts := mustEvaluate(t, newEngine(), source)
	if got := volume(t, parts[0].Solid); math.Abs(got-3000) > 1e-6 {
		t.Errorf("row volume = %g, want 3000", got)
	}
	if got := volume(t, parts[1].Solid); math.Abs(got-(1000-2)) > 1e-6 {
		t.Errorf("notched volume = %g, want 998", got)
	}
}

// plainKernel hides any Xor method of the wrapped kernel.
type plainKernel struct {
	kernel.Kernel
}

func TestXorWithoutNativeSupport(t *testing.T) {
	eng := NewEngine(plainKernel{bspkernel.New(csg.DefaultOptions())})
	parts := mustEvaluate(t, eng, `(defpart "x" (xor (cube 10) (translate (cube 10) (vec3 5 0 0))))`)
	if got := volume(t, parts[0].Solid); math.Abs(got-1000) > 1e-6 {
		t.Errorf("volume = %g, want 1000", got)
	}
}

// ---------------------------------------------------------------------------
// Transforms and part references
// ---------------------------------------------------------------------------

func TestTransforms(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantMin [3]float64
		wantMax [3]float64
	}{
		{"translate", `(translate (box 10 20 5) (vec3 1 2 3))`, [3]float64{1, 2, 3}, [3]float64{11, 22, 8}},
		{"rotate", `(rotate (box 10 20 5) (vec3 0 0 90))`, [3]float64{-20, 0, 0}, [3]float64{0, 10, 5}},
		{"uniform scale", `(scale (box 10 20 5) 2)`, [3]float64{0, 0, 0}, [3]float64{20, 40, 10}},
		{"scale", `(scale (box 10 20 5) (vec3 1 0.5 2))`, [3]float64{0, 0, 0}, [3]float64{10, 10, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := mustEvaluate(t, newEngine(), `(defpart "p" `+tt.expr+`)`)
			assertBounds(t, parts[0].Solid, tt.wantMin, tt.wantMax)
		})
	}
}

func TestPartReference(t *testing.T) {
	source := `
(defpart "a" (cube 10))
(defpart "b" (translate (part "a") (vec3 20 0 0)))
`
	parts := mustEvaluate(t, newEngine(), source)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Name != "a" || parts[1].Name != "b" {
		t.Errorf("part order = %q, %q", parts[0].Name, parts[1].Name)
	}
	assertBounds(t, parts[0].Solid, [3]float64{0, 0, 0}, [3]float64{10, 10, 10})
	assertBounds(t, parts[1].Solid, [3]float64{20, 0, 0}, [3]float64{30, 10, 10})
}

func TestDefpartReturnsSolid(t *testing.T) {
	source := `
(def a (defpart "a" (cube 10)))
(defpart "b" (difference a (cube 5)))
`
	parts := mustEvaluate(t, newEngine(), source)
	if got := volume(t, parts[1].Solid); math.Abs(got-875) > 1e-6 {
		t.Errorf("volume = %g, want 875", got)
	}
}

// ---------------------------------------------------------------------------
// Script errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"box arity", `(box 1 2)`, "box requires 3 sizes"},
		{"box negative", `(box -1 2 3)`, "positive"},
		{"box zero in vec3", `(box (vec3 1 0 3))`, "positive"},
		{"cube string", `(cube "x")`, "expected number"},
		{"sphere segments", `(sphere 1 :segments 2)`, "at least 3"},
		{"sphere fractional segments", `(sphere 1 :segments 2.5)`, "integer"},
		{"cylinder arity", `(cylinder 1)`, "radius and a height"},
		{"union arity", `(union (cube 1))`, "at least 2 solids"},
		{"union non solid", `(union (cube 1) 5)`, "expected solid"},
		{"xor arity", `(xor (cube 1) (cube 2) (cube 3))`, "exactly 2"},
		{"translate number", `(translate (cube 1) 5)`, "expected vec3"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"defpart body", `(defpart "a" 5)`, "expected solid"},
		{"defpart empty name", `(defpart "" (cube 1))`, "must not be empty"},
		{"duplicate part", `(defpart "a" (cube 1)) (defpart "a" (cube 2))`, "duplicate part"},
		{"missing part", `(part "ghost")`, "no part named"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, evalErrs, err := newEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if parts != nil {
				t.Errorf("expected nil parts, got %d", len(parts))
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected an eval error")
			}
			if !strings.Contains(evalErrs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", evalErrs[0].Message, tt.wantMsg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Other kernels
// ---------------------------------------------------------------------------

func TestSdfxKernel(t *testing.T) {
	eng := NewEngine(sdfx.NewWithCells(40))
	parts := mustEvaluate(t, eng, `(defpart "cup" (difference (cube 10) (translate (sphere 4) (vec3 5 5 10))))`)
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	min, max := parts[0].Solid.BoundingBox()
	for i := 0; i < 3; i++ {
		if min[i] > 1e-6 || max[i] < 10-1e-6 {
			t.Errorf("axis %d: bounds %g..%g should cover 0..10", i, min[i], max[i])
		}
	}
	m, err := eng.Kernel().ToMesh(parts[0].Solid)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	if m.IsEmpty() {
		t.Error("expected a non-empty mesh")
	}
}

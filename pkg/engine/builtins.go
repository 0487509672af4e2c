package engine

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/csgbsp/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites design scripts into plain zygomys source. It
// performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: side-panel -> side_panel
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a kernel.Solid so it can flow between builtins.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return "(" + s.desc + ")"
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a vector for translate, rotate and scale.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// intKW returns the integer keyword name, or def when absent.
func (a kwArgs) intKW(name string, def int) (int, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%s: expected an integer, got %g", name, f)
	}
	return int(f), nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toPositive extracts a number that must be greater than zero.
func toPositive(s zygo.Sexp) (float64, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if !(f > 0) {
		return 0, fmt.Errorf("expected a positive number, got %g", f)
	}
	return f, nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a kernel.Solid from a sexpSolid.
func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if sol, ok := s.(*sexpSolid); ok {
		return sol, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 accepts a vec3 value, or a plain number meaning the same value on
// every axis when uniform is set.
func toVec3(s zygo.Sexp, uniform bool) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	if uniform {
		if f, err := toFloat64(s); err == nil {
			return v3.Vec{X: f, Y: f, Z: f}, nil
		}
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Design state
// ---------------------------------------------------------------------------

// design collects the parts declared by a script, in declaration order.
type design struct {
	parts  []kernel.Part
	byName map[string]int
}

func newDesign() *design {
	return &design{byName: make(map[string]int)}
}

func (d *design) add(name string, s kernel.Solid) error {
	if _, dup := d.byName[name]; dup {
		return fmt.Errorf("duplicate part %q", name)
	}
	d.byName[name] = len(d.parts)
	d.parts = append(d.parts, kernel.Part{Name: name, Solid: s})
	return nil
}

func (d *design) lookup(name string) (kernel.Solid, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return d.parts[i].Solid, true
}

// xorer is implemented by kernels with a native symmetric difference.
type xorer interface {
	Xor(a, b kernel.Solid) kernel.Solid
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the CSG builtins into a zygomys environment.
// Solids are created through k; parts declared with defpart land in d.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel, d *design) {

	// -----------------------------------------------------------------------
	// (box 600 300 18) or (box (vec3 600 300 18))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var dims [3]float64
		switch len(args) {
		case 1:
			v, err := toVec3(args[0], false)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
			dims = [3]float64{v.X, v.Y, v.Z}
			for i, f := range dims {
				if !(f > 0) {
					return zygo.SexpNull, fmt.Errorf("box: size %d: expected a positive number, got %g", i, f)
				}
			}
		case 3:
			for i, a := range args {
				f, err := toPositive(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: size %d: %w", i, err)
				}
				dims[i] = f
			}
		default:
			return zygo.SexpNull, fmt.Errorf("box requires 3 sizes or a vec3, got %d arguments", len(args))
		}
		return &sexpSolid{
			solid: k.Box(dims[0], dims[1], dims[2]),
			desc:  fmt.Sprintf("box %g %g %g", dims[0], dims[1], dims[2]),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (cube 10)
	// -----------------------------------------------------------------------
	env.AddFunction("cube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("cube requires exactly 1 argument, got %d", len(args))
		}
		s, err := toPositive(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cube: size: %w", err)
		}
		return &sexpSolid{solid: k.Box(s, s, s), desc: fmt.Sprintf("cube %g", s)}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere 5 :segments 24)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("sphere requires a radius")
		}
		r, err := toPositive(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		segs, err := pa.intKW("segments", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		if segs != 0 && segs < 3 {
			return zygo.SexpNull, fmt.Errorf("sphere: segments: need at least 3, got %d", segs)
		}
		return &sexpSolid{solid: k.Sphere(r, segs), desc: fmt.Sprintf("sphere %g", r)}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder 5 20 :segments 32)    radius, height
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("cylinder requires a radius and a height")
		}
		r, err := toPositive(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		h, err := toPositive(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		segs, err := pa.intKW("segments", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		if segs != 0 && segs < 3 {
			return zygo.SexpNull, fmt.Errorf("cylinder: segments: need at least 3, got %d", segs)
		}
		return &sexpSolid{solid: k.Cylinder(h, r, segs), desc: fmt.Sprintf("cylinder %g %g", r, h)}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: v3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...), (difference a b ...), (intersection a b ...)
	// -----------------------------------------------------------------------
	fold := func(op string, combine func(a, b kernel.Solid) kernel.Solid) {
		env.AddFunction(op, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", op, len(args))
			}
			first, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: argument 1: %w", op, err)
			}
			acc := first.solid
			for i := 1; i < len(args); i++ {
				s, err := toSolid(args[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", op, i+1, err)
				}
				acc = combine(acc, s.solid)
			}
			return &sexpSolid{solid: acc, desc: fmt.Sprintf("%s of %d", op, len(args))}, nil
		})
	}
	fold("union", k.Union)
	fold("difference", k.Difference)
	fold("intersection", k.Intersection)

	// -----------------------------------------------------------------------
	// (xor a b)
	// -----------------------------------------------------------------------
	env.AddFunction("xor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("xor requires exactly 2 solids, got %d", len(args))
		}
		a, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("xor: argument 1: %w", err)
		}
		b, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("xor: argument 2: %w", err)
		}
		var out kernel.Solid
		if x, ok := k.(xorer); ok {
			out = x.Xor(a.solid, b.solid)
		} else {
			out = kernel.Xor(k, a.solid, b.solid)
		}
		return &sexpSolid{solid: out, desc: "xor"}, nil
	})

	// -----------------------------------------------------------------------
	// (translate s (vec3 ...)), (rotate s (vec3 ...)), (scale s 2)
	// -----------------------------------------------------------------------
	transform := func(op string, uniform bool, apply func(s kernel.Solid, x, y, z float64) kernel.Solid) {
		env.AddFunction(op, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid and a vec3, got %d arguments", op, len(args))
			}
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			v, err := toVec3(args[1], uniform)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
			}
			return &sexpSolid{solid: apply(s.solid, v.X, v.Y, v.Z), desc: op + " " + s.desc}, nil
		})
	}
	transform("translate", false, k.Translate)
	transform("rotate", false, k.Rotate)
	transform("scale", true, k.Scale)

	// -----------------------------------------------------------------------
	// (defpart "name" solid)
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		if partName == "" {
			return zygo.SexpNull, fmt.Errorf("defpart: name must not be empty")
		}

		body, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
		}
		if err := d.add(partName, body.solid); err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
		}
		return body, nil
	})

	// -----------------------------------------------------------------------
	// (part "name")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}

		s, ok := d.lookup(partName)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}
		return &sexpSolid{solid: s, desc: fmt.Sprintf("part %q", partName)}, nil
	})
}

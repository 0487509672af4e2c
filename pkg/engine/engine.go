// Package engine evaluates design scripts. It wraps zygomys in a sandboxed
// environment, exposes CSG builtins backed by a geometry kernel and
// returns the parts the script declares.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/csgbsp/pkg/kernel"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	generation atomic.Uint64
	kernel     kernel.Kernel

	// Timeout bounds a single evaluation. Zero means EvalTimeout.
	Timeout time.Duration
}

// NewEngine creates an Engine whose builtins build solids with k.
func NewEngine(k kernel.Kernel) *Engine {
	return &Engine{kernel: k, Timeout: EvalTimeout}
}

// Kernel returns the kernel solids are built with.
func (e *Engine) Kernel() kernel.Kernel {
	return e.kernel
}

// Evaluate runs a design script and returns the parts it declares with
// defpart, in declaration order.
//
// Return semantics:
//   - On success: returns parts (possibly empty, never nil) + nil errors + nil error
//   - On parse/eval failure: returns nil parts + eval errors + nil error
//   - On fatal failure (ErrTimeout, ErrSuperseded, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) ([]kernel.Part, []EvalError, error) {
	gen := e.generation.Add(1)

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		parts, evalErrs, err := e.evaluate(source)
		ch <- evalResult{parts: parts, errors: evalErrs, err: err}
	}()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = EvalTimeout
	}
	return e.await(ch, gen, timeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) ([]kernel.Part, []EvalError, error) {
	if e.kernel == nil {
		return nil, nil, fmt.Errorf("engine: no geometry kernel")
	}

	// Empty source is a valid program that declares nothing.
	if strings.TrimSpace(source) == "" {
		return []kernel.Part{}, nil, nil
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	d := newDesign()
	registerBuiltins(env, e.kernel, d)

	// Load and compile the source string into bytecode.
	err := env.LoadString(preprocessSource(source))
	if err != nil {
		evalErrs := parseZygomysError(err)
		return nil, evalErrs, nil
	}

	// Execute the compiled bytecode.
	_, err = env.Run()
	if err != nil {
		evalErrs := parseZygomysError(err)
		return nil, evalErrs, nil
	}

	if d.parts == nil {
		return []kernel.Part{}, nil, nil
	}
	return d.parts, nil, nil
}

// linePatterns extract a line number from zygomys error messages, which
// come as "Error on line N: ..." from the parser and "line N: ..." elsewhere.
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`),
	regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`),
}

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range linePatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	// No line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

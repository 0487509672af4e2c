package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/csgbsp/pkg/kernel"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's timeout.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer Evaluate call had started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult carries one evaluation's outcome from its goroutine.
type evalResult struct {
	parts  []kernel.Part
	errors []EvalError
	err    error
}

// await blocks until the evaluation of generation gen reports on ch or
// timeout expires. A timed-out goroutine keeps running; its late result is
// dropped because the buffered channel is never read again.
func (e *Engine) await(ch <-chan evalResult, gen uint64, timeout time.Duration) ([]kernel.Part, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if e.generation.Load() != gen {
			return nil, nil, ErrSuperseded
		}
		return res.parts, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

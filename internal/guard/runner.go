package guard

import "context"

// Runner re-evaluates the guard whenever new inputs arrive. Evaluation
// happens on the Run goroutine only; when several inputs are queued the
// latest one wins.
type Runner struct {
	exec     *Executor
	onChange func(Decision)
}

// NewRunner creates a runner. onChange, if set, receives every decision so
// a view layer can render the placeholder or the children.
func NewRunner(exec *Executor, onChange func(Decision)) *Runner {
	return &Runner{exec: exec, onChange: onChange}
}

// Run consumes inputs until the channel closes (nil) or ctx is done.
func (r *Runner) Run(ctx context.Context, inputs <-chan Inputs) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-inputs:
			if !ok {
				return nil
			}
			in, open := latest(inputs, in)
			r.evaluate(in)
			if !open {
				return nil
			}
		}
	}
}

func (r *Runner) evaluate(in Inputs) {
	d := r.exec.Evaluate(in)
	if r.onChange != nil {
		r.onChange(d)
	}
}

// latest drains whatever is already queued and returns the newest value.
func latest(inputs <-chan Inputs, in Inputs) (Inputs, bool) {
	for {
		select {
		case next, ok := <-inputs:
			if !ok {
				return in, false
			}
			in = next
		default:
			return in, true
		}
	}
}

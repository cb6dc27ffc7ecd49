package guard

import (
	"log/slog"
)

// Navigator is the navigation primitive the executor drives.
type Navigator interface {
	Push(path string)
	Replace(path string)
	CurrentPath() string
}

// Hook observes every applied decision. issued is true when a navigation
// call was actually made.
type Hook func(in Inputs, d Decision, issued bool)

type Option func(*Executor)

// WithLogger sets the logger used for redirect decisions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithHook registers a hook run after each applied decision.
func WithHook(h Hook) Option {
	return func(e *Executor) {
		if h != nil {
			e.hooks = append(e.hooks, h)
		}
	}
}

// Executor applies guard decisions to a Navigator. An Executor belongs to a
// single navigation context and is not safe for concurrent use.
type Executor struct {
	nav   Navigator
	log   *slog.Logger
	hooks []Hook

	last *Decision
}

func NewExecutor(nav Navigator, opts ...Option) *Executor {
	e := &Executor{
		nav: nav,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides on in and applies the result.
func (e *Executor) Evaluate(in Inputs) Decision {
	d := Decide(in)
	e.apply(in, d)
	return d
}

// Apply performs the navigation for d, if any. It reports whether a
// navigation call was made.
func (e *Executor) Apply(d Decision) bool {
	return e.apply(Inputs{Path: e.nav.CurrentPath()}, d)
}

func (e *Executor) apply(in Inputs, d Decision) bool {
	issued := false
	if d.IsRedirect() {
		issued = e.navigate(in, d)
	} else {
		e.last = nil
	}
	for _, h := range e.hooks {
		h(in, d, issued)
	}
	return issued
}

func (e *Executor) navigate(in Inputs, d Decision) bool {
	if e.last != nil && e.last.Target == d.Target && e.last.Mode == d.Mode {
		e.log.Debug("Guard redirect already issued", "target", d.Target, "cause", d.Cause)
		return false
	}
	if e.nav.CurrentPath() == d.Target {
		e.last = &d
		return false
	}

	e.log.Info("Guard redirect",
		"from", in.Path,
		"target", d.Target,
		"mode", d.Mode,
		"cause", d.Cause,
		"state", d.State(),
	)

	switch d.Mode {
	case ModeReplace:
		e.nav.Replace(d.Target)
	default:
		e.nav.Push(d.Target)
	}
	e.last = &d
	return true
}

// Package binder recomputes derived outputs when the input signals they depend on
// change. A Graph declares the wiring once; each Session holds one user's signal
// values and last outputs.
package binder

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
)

// ErrNoUpdate is returned by a ComputeFunc that has nothing new to show. The
// session keeps the previous output and reports the output as skipped.
var ErrNoUpdate = errors.New("binder: no update")

// ErrUnknownSignal is returned by Session.Set for a signal the graph does not declare.
var ErrUnknownSignal = errors.New("binder: unknown signal")

// Signal names an input, e.g. "year-dropdown.value".
type Signal string

// Output names a derived value, e.g. "stats-table.data".
type Output string

// Values is a snapshot of signal values handed to a ComputeFunc.
type Values map[Signal]string

// ComputeFunc derives an output from the current signal values.
type ComputeFunc func(ctx context.Context, in Values) (any, error)

// Binding declares that Output is computed from Inputs.
type Binding struct {
	Output  Output
	Inputs  []Signal
	Compute ComputeFunc
}

// Graph is an immutable set of bindings over a fixed set of signals.
type Graph struct {
	defaults   Values
	bindings   []Binding
	dependents map[Signal][]int
}

// NewGraph validates bindings against the declared signals. defaults gives every
// signal's initial value; a signal absent from defaults cannot be used.
func NewGraph(defaults Values, bindings ...Binding) (*Graph, error) {
	g := &Graph{
		defaults:   maps.Clone(defaults),
		bindings:   make([]Binding, 0, len(bindings)),
		dependents: make(map[Signal][]int),
	}
	if g.defaults == nil {
		g.defaults = Values{}
	}

	seen := make(map[Output]bool, len(bindings))
	for i, b := range bindings {
		if b.Output == "" {
			return nil, fmt.Errorf("binding %d: empty output name", i)
		}
		if seen[b.Output] {
			return nil, fmt.Errorf("binding %q: duplicate output", b.Output)
		}
		seen[b.Output] = true

		if b.Compute == nil {
			return nil, fmt.Errorf("binding %q: nil compute func", b.Output)
		}
		if len(b.Inputs) == 0 {
			return nil, fmt.Errorf("binding %q: no inputs", b.Output)
		}
		for _, sig := range b.Inputs {
			if _, ok := g.defaults[sig]; !ok {
				return nil, fmt.Errorf("binding %q: %w %q", b.Output, ErrUnknownSignal, sig)
			}
			g.dependents[sig] = append(g.dependents[sig], i)
		}
		g.bindings = append(g.bindings, b)
	}
	return g, nil
}

// Outputs lists the graph's outputs in declaration order.
func (g *Graph) Outputs() []Output {
	out := make([]Output, len(g.bindings))
	for i, b := range g.bindings {
		out[i] = b.Output
	}
	return out
}

// Defaults returns a copy of the initial signal values.
func (g *Graph) Defaults() Values { return maps.Clone(g.defaults) }

// Update is the result of one recomputation pass.
type Update struct {
	// Outputs holds every output recomputed in this pass.
	Outputs map[Output]any
	// Skipped lists outputs whose compute returned ErrNoUpdate, in declaration order.
	Skipped []Output
	// Errors holds outputs whose compute failed. Their previous value is kept.
	Errors map[Output]error
}

// Empty reports whether the pass produced nothing at all.
func (u Update) Empty() bool {
	return len(u.Outputs) == 0 && len(u.Skipped) == 0 && len(u.Errors) == 0
}

// Session is one user's live view of a Graph. It is safe for concurrent use;
// passes are serialized so no output is ever computed twice at once.
type Session struct {
	graph *Graph

	mu      sync.Mutex
	values  Values
	outputs map[Output]any
}

// NewSession starts a session with the graph defaults overridden by initial and
// computes every output once. Keys in initial that the graph does not declare
// are rejected.
func (g *Graph) NewSession(ctx context.Context, initial Values) (*Session, Update, error) {
	s := &Session{
		graph:   g,
		values:  g.Defaults(),
		outputs: make(map[Output]any, len(g.bindings)),
	}
	for sig, v := range initial {
		if _, ok := g.defaults[sig]; !ok {
			return nil, Update{}, fmt.Errorf("%w %q", ErrUnknownSignal, sig)
		}
		s.values[sig] = v
	}

	all := make([]int, len(g.bindings))
	for i := range all {
		all[i] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s, s.recompute(ctx, all), nil
}

// Set applies changes and recomputes, exactly once each, the outputs that depend
// on a signal whose value actually changed. All changes are applied before any
// compute runs, so no compute sees a mix of old and new values.
func (s *Session) Set(ctx context.Context, changes Values) (Update, error) {
	for sig := range changes {
		if _, ok := s.graph.defaults[sig]; !ok {
			return Update{}, fmt.Errorf("%w %q", ErrUnknownSignal, sig)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	affected := make(map[int]bool)
	for sig, v := range changes {
		if s.values[sig] == v {
			continue
		}
		s.values[sig] = v
		for _, i := range s.graph.dependents[sig] {
			affected[i] = true
		}
	}

	order := make([]int, 0, len(affected))
	for i := range s.graph.bindings {
		if affected[i] {
			order = append(order, i)
		}
	}
	return s.recompute(ctx, order), nil
}

// recompute runs the given bindings in order. Callers hold s.mu.
func (s *Session) recompute(ctx context.Context, order []int) Update {
	u := Update{Outputs: make(map[Output]any, len(order))}
	snapshot := maps.Clone(s.values)

	for _, i := range order {
		b := s.graph.bindings[i]
		in := make(Values, len(b.Inputs))
		for _, sig := range b.Inputs {
			in[sig] = snapshot[sig]
		}

		v, err := b.Compute(ctx, in)
		switch {
		case errors.Is(err, ErrNoUpdate):
			u.Skipped = append(u.Skipped, b.Output)
		case err != nil:
			if u.Errors == nil {
				u.Errors = make(map[Output]error)
			}
			u.Errors[b.Output] = err
		default:
			s.outputs[b.Output] = v
			u.Outputs[b.Output] = v
		}
	}
	return u
}

// Value returns the current value of sig.
func (s *Session) Value(sig Signal) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[sig]
}

// Values returns a copy of all current signal values.
func (s *Session) Values() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}

// Output returns the last successfully computed value of o.
func (s *Session) Output(o Output) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.outputs[o]
	return v, ok
}

// Snapshot returns a copy of every output computed so far.
func (s *Session) Snapshot() map[Output]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.outputs)
}

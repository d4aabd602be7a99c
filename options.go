package brep

import "github.com/gogpu/brep/geom"

// Option configures a boolean operation.
// Use functional options to customize And, Or and Sub behavior.
//
// Example:
//
//	// Default: sequential, library tolerance
//	arena, out, err := brep.Or(ar, a, br, b)
//
//	// Looser tolerance, four intersection workers
//	arena, out, err := brep.Or(ar, a, br, b,
//		brep.WithTolerance(1e-6), brep.WithParallelism(4))
type Option func(*options)

// options holds the resolved configuration of one boolean operation.
type options struct {
	tol     float64
	budget  int
	workers int
	snapdir string
}

// defaultOptions returns the default operation options.
func defaultOptions() options {
	return options{
		tol:     geom.Tolerance,
		budget:  geom.DefaultBudget,
		workers: 1,
	}
}

func resolveOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTolerance sets the geometric coincidence tolerance of the operation.
// Non-positive values keep the default geom.Tolerance.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.tol = tol
		}
	}
}

// WithBudget sets the Newton trial budget used by intersection refinement.
// Non-positive values keep the default geom.DefaultBudget.
func WithBudget(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.budget = n
		}
	}
}

// WithParallelism sets the number of workers for the per-pair intersection
// phase. The default of 1 runs the phase sequentially; results are
// identical either way, since every pair writes to its own slot and the
// merge is sequential.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithSnapshotDir enables diagnostic PNG snapshots of every face division,
// written to dir as one image per divided face in surface parameter space.
// Snapshot failures are logged at Warn level and never fail the operation.
func WithSnapshotDir(dir string) Option {
	return func(o *options) {
		o.snapdir = dir
	}
}

package cmd

import (
	"github.com/moccore/solver/eigensolver"
	"github.com/moccore/solver/report"
	"github.com/moccore/solver/runtime"
)

// ProblemLoaderFunc builds a ready-to-run Driver from parsed runtime
// parameters. A real binary wires this to whatever geometry/track-
// generation package it uses; this core never implements one itself
// (spec section 1 Non-goals), so SolveCmd only calls through this hook.
type ProblemLoaderFunc func(params *runtime.Parameters, rep *report.Reporter) (*eigensolver.Driver, error)

// ProblemLoader is nil until a caller (e.g. a test, or a downstream
// binary that owns geometry) sets it via RegisterProblemLoader.
var ProblemLoader ProblemLoaderFunc

func RegisterProblemLoader(f ProblemLoaderFunc) {
	ProblemLoader = f
}

// Package moctypes holds the small set of enumerations shared across the
// core's packages: boundary conditions, residual metrics and stabilization
// variants. Keeping them here (rather than duplicated per package) mirrors
// the teacher's own types package, which centralizes BCFLAG/EdgeKey for the
// same reason - several packages need to agree on the same tag values.
package moctypes

import "strings"

// BoundaryType classifies the exit side of a track, per spec section 4.2.
type BoundaryType uint8

const (
	BoundaryNone BoundaryType = iota
	Reflective
	Periodic
	Vacuum
	Interface
)

func (b BoundaryType) String() string {
	switch b {
	case Reflective:
		return "REFLECTIVE"
	case Periodic:
		return "PERIODIC"
	case Vacuum:
		return "VACUUM"
	case Interface:
		return "INTERFACE"
	default:
		return "NONE"
	}
}

// BoundaryNameMap lets configuration and test fixtures parse boundary names
// case-insensitively, the way utils.BCNameMap does for CFD boundary names.
var BoundaryNameMap = map[string]BoundaryType{
	"reflective": Reflective,
	"periodic":   Periodic,
	"vacuum":     Vacuum,
	"interface":  Interface,
}

func ParseBoundaryName(name string) BoundaryType {
	if bt, ok := BoundaryNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return bt
	}
	return Vacuum
}

// ResidualType selects the outer-iteration convergence metric (spec 4.4).
type ResidualType uint8

const (
	ScalarFlux ResidualType = iota
	FissionSource
	TotalSource
)

func (r ResidualType) String() string {
	switch r {
	case FissionSource:
		return "FISSION_SOURCE"
	case TotalSource:
		return "TOTAL_SOURCE"
	default:
		return "SCALAR_FLUX"
	}
}

// StabilizationType selects one of the three flux-damping variants (spec 4.6).
type StabilizationType uint8

const (
	NoStabilization StabilizationType = iota
	Diagonal
	Yamamoto
	Global
)

func (s StabilizationType) String() string {
	switch s {
	case Diagonal:
		return "DIAGONAL"
	case Yamamoto:
		return "YAMAMOTO"
	case Global:
		return "GLOBAL"
	default:
		return "NONE"
	}
}

// Direction is the travel sense along a track: Forward follows the track
// from its start point to its end point, Reverse the opposite way.
type Direction uint8

const (
	Forward Direction = 0
	Reverse Direction = 1
)

func (d Direction) Other() Direction {
	return 1 - d
}

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "reverse"
}

// SourceType selects the flat-source-region source shape. The core only
// implements Flat; Linear is an extension point named by the spec but not
// built here.
type SourceType uint8

const (
	FlatSource SourceType = iota
	LinearSource
)

func (s SourceType) String() string {
	if s == LinearSource {
		return "Linear"
	}
	return "Flat"
}

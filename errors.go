package brep

import "errors"

var (
	// ErrShellNotClosed reports an operand whose shells are not watertight
	// after healing. Boolean operations require Closed operands.
	ErrShellNotClosed = errors.New("brep: operand shell is not closed")

	// ErrDegenerateLoop identifies a division loop whose area vanishes at
	// tolerance. Such loops are dropped and logged with this value attached.
	ErrDegenerateLoop = errors.New("brep: degenerate division loop")

	// ErrUnclassifiedRegion reports a fragment component that received no
	// label and has no labeled neighbor to inherit one from.
	ErrUnclassifiedRegion = errors.New("brep: region could not be classified")

	// ErrResultNotClosed reports a boolean result that failed watertight
	// validation. No result is returned in that case.
	ErrResultNotClosed = errors.New("brep: result shell is not closed")

	// ErrEmptyResult reports a boolean operation whose regularized result
	// contains no faces.
	ErrEmptyResult = errors.New("brep: empty result")
)

package brep

// Status classifies a face fragment produced by division: StatusAnd marks
// fragments lying inside the other operand (kept by And), StatusOr
// fragments lying outside (kept by Or), StatusUnknown fragments awaiting
// propagation by the region classifier.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusAnd
	StatusOr
)

func (s Status) String() string {
	switch s {
	case StatusAnd:
		return "and"
	case StatusOr:
		return "or"
	case StatusUnknown:
		return "unknown"
	}
	return "invalid"
}

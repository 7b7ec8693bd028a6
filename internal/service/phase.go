package service

// Phase is the position of a workflow invocation in
// idle -> validating -> in-flight -> success | not-found | failed.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseInFlight
	PhaseSuccess
	PhaseNotFound
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseInFlight:
		return "in-flight"
	case PhaseSuccess:
		return "success"
	case PhaseNotFound:
		return "not-found"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Done reports whether the phase is terminal.
func (p Phase) Done() bool {
	return p == PhaseSuccess || p == PhaseNotFound || p == PhaseFailed
}

package core

// Phase is a canonical lifecycle phase derived from an observed status.
// It is never stored; callers recompute it on every read.
type Phase string

const (
	PhasePending    Phase = "Pending"
	PhaseRunning    Phase = "Running"
	PhaseStopping   Phase = "Stopping"
	PhaseStopped    Phase = "Stopped"
	PhaseTerminated Phase = "Terminated"
	PhaseUnknown    Phase = "Unknown"

	PhaseProcessing Phase = "Processing"
	PhaseSuccess    Phase = "Success"
	PhaseFailed     Phase = "Failed"
)

// IsTerminal reports whether a release phase will not change again.
func (p Phase) IsTerminal() bool {
	return p == PhaseSuccess || p == PhaseFailed
}

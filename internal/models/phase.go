package models

// Phase represents the upload pipeline's current stage.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseUploading  Phase = "uploading"
	PhaseProcessing Phase = "processing"
	PhaseDone       Phase = "done"
	PhaseError      Phase = "error"
)

// CanTransition reports whether moving from p to next is a legal step.
func (p Phase) CanTransition(next Phase) bool {
	switch p {
	case PhaseIdle:
		return next == PhaseUploading
	case PhaseUploading:
		return next == PhaseProcessing || next == PhaseError
	case PhaseProcessing:
		return next == PhaseDone || next == PhaseError
	case PhaseDone, PhaseError:
		return next == PhaseIdle
	}
	return false
}

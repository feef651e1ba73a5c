package migrate

// Phase is the state of a Migrator.
type Phase int

// Phases of a migration. PhaseFailed can be reached from every phase before
// PhaseDone.
const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseSchemaApplied
	PhaseCopyingTables
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseSchemaApplied:
		return "schema applied"
	case PhaseCopyingTables:
		return "copying tables"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal returns true for PhaseDone and PhaseFailed.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

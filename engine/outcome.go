package engine

// =============================================================================
// OUTCOME - Tagged union for one blackout's evaluation result
// =============================================================================

// OutcomeKind discriminates the per-blackout evaluation result. A blackout
// yields at most one conflict OR one warning, never both.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeConflict
	OutcomeWarning
)

// Outcome is the result of evaluating a single blackout against a request.
// Exactly one payload is meaningful, selected by Kind.
type Outcome struct {
	Kind     OutcomeKind
	Conflict Conflict
	Warning  Warning
}

func NoOutcome() Outcome { return Outcome{Kind: OutcomeNone} }

func ConflictOutcome(c Conflict) Outcome { return Outcome{Kind: OutcomeConflict, Conflict: c} }

func WarningOutcome(w Warning) Outcome { return Outcome{Kind: OutcomeWarning, Warning: w} }

// Collect partitions outcomes into a verdict, dropping OutcomeNone and
// preserving input order.
func Collect(outcomes []Outcome, emergency bool) *Verdict {
	v := &Verdict{Emergency: emergency}
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeConflict:
			v.Conflicts = append(v.Conflicts, o.Conflict)
		case OutcomeWarning:
			v.Warnings = append(v.Warnings, o.Warning)
		}
	}
	return v
}

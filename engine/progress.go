package engine

// =============================================================================
// APPROVAL PROGRESS - Per-request aggregate over the chain
// =============================================================================

// Progress is the computed approval state of one request's chain. Rows at
// a level are only actionable once every lower level is resolved; chain
// construction emits level 1 only, so gating matters once reconciliation
// introduces higher levels.
type Progress struct {
	RequestID RequestID
	Approvals []*PtoApproval

	// CurrentLevel is the minimum level with a pending row, 0 when nothing
	// is pending.
	CurrentLevel int
}

// ComputeProgress derives the progress aggregate from a request's rows.
func ComputeProgress(requestID RequestID, approvals []*PtoApproval) *Progress {
	current := 0
	for _, a := range approvals {
		if a.Status != ApprovalPending {
			continue
		}
		if current == 0 || a.Level < current {
			current = a.Level
		}
	}
	return &Progress{RequestID: requestID, Approvals: approvals, CurrentLevel: current}
}

// Actionable returns the pending rows at the current level, in sequence
// order as loaded.
func (p *Progress) Actionable() []*PtoApproval {
	if p.CurrentLevel == 0 {
		return nil
	}
	var out []*PtoApproval
	for _, a := range p.Approvals {
		if a.Status == ApprovalPending && a.Level == p.CurrentLevel {
			out = append(out, a)
		}
	}
	return out
}

// AllRequiredApproved reports whether every required row has been
// approved.
func (p *Progress) AllRequiredApproved() bool {
	for _, a := range p.Approvals {
		if a.IsRequired && a.Status != ApprovalApproved {
			return false
		}
	}
	return len(p.Approvals) > 0
}

// AnyDenied reports whether any row has been denied.
func (p *Progress) AnyDenied() bool {
	for _, a := range p.Approvals {
		if a.Status == ApprovalDenied {
			return true
		}
	}
	return false
}

package engine_test

import (
	"testing"

	"github.com/warp/pto-engine/engine"
)

// =============================================================================
// APPROVAL PROGRESS TESTS
// =============================================================================

func TestComputeProgress_CurrentLevelIsLowestPending(t *testing.T) {
	approvals := []*engine.PtoApproval{
		approvalRow("a-1", "req-1", "mgr-1", 1, 1, engine.ApprovalApproved),
		approvalRow("a-2", "req-1", "appr-a", 2, 2, engine.ApprovalPending),
		approvalRow("a-3", "req-1", "appr-b", 3, 3, engine.ApprovalPending),
	}

	p := engine.ComputeProgress("req-1", approvals)
	if p.CurrentLevel != 2 {
		t.Fatalf("expected current level 2, got %d", p.CurrentLevel)
	}

	actionable := p.Actionable()
	if len(actionable) != 1 || actionable[0].ApproverID != "appr-a" {
		t.Fatalf("expected only the level-2 row actionable, got %+v", actionable)
	}
}

func TestComputeProgress_NothingPending(t *testing.T) {
	approvals := []*engine.PtoApproval{
		approvalRow("a-1", "req-1", "mgr-1", 1, 1, engine.ApprovalApproved),
	}

	p := engine.ComputeProgress("req-1", approvals)
	if p.CurrentLevel != 0 {
		t.Fatalf("expected level 0, got %d", p.CurrentLevel)
	}
	if p.Actionable() != nil {
		t.Error("expected no actionable rows")
	}
}

func TestAllRequiredApproved(t *testing.T) {
	// Empty chains never count as approved.
	if engine.ComputeProgress("req-1", nil).AllRequiredApproved() {
		t.Error("empty chain must not be all-approved")
	}

	approvals := []*engine.PtoApproval{
		approvalRow("a-1", "req-1", "mgr-1", 1, 1, engine.ApprovalApproved),
		approvalRow("a-2", "req-1", "appr-a", 1, 2, engine.ApprovalPending),
	}
	if engine.ComputeProgress("req-1", approvals).AllRequiredApproved() {
		t.Error("pending required row must block approval")
	}

	approvals[1].Status = engine.ApprovalApproved
	if !engine.ComputeProgress("req-1", approvals).AllRequiredApproved() {
		t.Error("expected all required rows approved")
	}

	// Optional rows do not gate.
	approvals = append(approvals, &engine.PtoApproval{
		ID: "a-3", RequestID: "req-1", ApproverID: "fyi-1",
		Status: engine.ApprovalPending, Level: 1, Sequence: 3, IsRequired: false,
	})
	if !engine.ComputeProgress("req-1", approvals).AllRequiredApproved() {
		t.Error("optional pending row must not block approval")
	}
}

func TestAnyDenied(t *testing.T) {
	approvals := []*engine.PtoApproval{
		approvalRow("a-1", "req-1", "mgr-1", 1, 1, engine.ApprovalApproved),
		approvalRow("a-2", "req-1", "appr-a", 1, 2, engine.ApprovalDenied),
	}
	if !engine.ComputeProgress("req-1", approvals).AnyDenied() {
		t.Error("expected denial to be detected")
	}
}

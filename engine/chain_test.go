package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/warp/pto-engine/engine"
	"github.com/warp/pto-engine/engine/store"
)

// =============================================================================
// CHAIN CONSTRUCTION TESTS
// =============================================================================

func chainFixture(fallback engine.UserID) (*engine.ChainBuilder, *store.Directory, *store.TxMemory) {
	directory := store.NewDirectory()
	requests := store.NewTxMemory()
	builder := engine.NewChainBuilder(directory, requests, fallback, nil)
	return builder, directory, requests
}

func userWithManager(id, manager engine.UserID) *engine.User {
	return &engine.User{ID: id, ManagerID: &manager}
}

func pendingRequest(id engine.RequestID, userID engine.UserID) *engine.PtoRequest {
	return &engine.PtoRequest{
		ID:        id,
		UserID:    userID,
		TypeID:    "vacation",
		StartDate: engine.NewDate(2026, 6, 1),
		EndDate:   engine.NewDate(2026, 6, 5),
		Status:    engine.RequestPending,
	}
}

func TestBuildChain_SingleLevelManagerOnly(t *testing.T) {
	// GIVEN: A requester with a direct manager and a single-level type
	// WHEN: The chain is built
	// THEN: Exactly one pending row for the manager at level 1, sequence 1

	builder, directory, requests := chainFixture("")
	directory.AddUser(userWithManager("emp-1", "mgr-1"))
	directory.AddUser(&engine.User{ID: "mgr-1"})

	req := pendingRequest("req-1", "emp-1")
	ptoType := &engine.PtoType{ID: "vacation", Name: "Vacation"}

	approvals, err := builder.BuildChain(context.Background(), req, ptoType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(approvals) != 1 {
		t.Fatalf("expected 1 approval, got %d", len(approvals))
	}

	a := approvals[0]
	if a.ApproverID != "mgr-1" {
		t.Errorf("expected approver mgr-1, got %s", a.ApproverID)
	}
	if a.Level != 1 || a.Sequence != 1 {
		t.Errorf("expected level 1 sequence 1, got level %d sequence %d", a.Level, a.Sequence)
	}
	if a.Status != engine.ApprovalPending {
		t.Errorf("expected pending status, got %s", a.Status)
	}
	if !a.IsRequired {
		t.Error("expected approval to be required")
	}

	// Rows are persisted.
	stored, err := requests.ListApprovals(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored approval, got %d", len(stored))
	}
}

func TestBuildChain_MultiLevelManagerThenSpecificApprovers(t *testing.T) {
	// GIVEN: A multi-level type with specific approvers A and B
	// WHEN: The chain is built for a requester managed by M
	// THEN: Rows are [M, A, B] with sequences 1, 2, 3, all level 1

	builder, directory, _ := chainFixture("")
	directory.AddUser(userWithManager("emp-1", "mgr-1"))

	req := pendingRequest("req-1", "emp-1")
	ptoType := &engine.PtoType{
		ID:                 "vacation",
		MultiLevelApproval: true,
		SpecificApprovers:  []engine.UserID{"appr-a", "appr-b"},
	}

	approvals, err := builder.BuildChain(context.Background(), req, ptoType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []engine.UserID{"mgr-1", "appr-a", "appr-b"}
	if len(approvals) != len(want) {
		t.Fatalf("expected %d approvals, got %d", len(want), len(approvals))
	}
	for i, a := range approvals {
		if a.ApproverID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], a.ApproverID)
		}
		if a.Sequence != i+1 {
			t.Errorf("position %d: expected sequence %d, got %d", i, i+1, a.Sequence)
		}
		if a.Level != 1 {
			t.Errorf("position %d: expected level 1, got %d", i, a.Level)
		}
	}
}

func TestBuildChain_DeduplicatesFirstSeen(t *testing.T) {
	// GIVEN: The manager also appears in the specific approver list
	// WHEN: The chain is built
	// THEN: The manager keeps their first-seen position, no duplicate row

	builder, directory, _ := chainFixture("")
	directory.AddUser(userWithManager("emp-1", "mgr-1"))

	req := pendingRequest("req-1", "emp-1")
	ptoType := &engine.PtoType{
		ID:                 "vacation",
		MultiLevelApproval: true,
		SpecificApprovers:  []engine.UserID{"appr-a", "mgr-1", "appr-a"},
	}

	approvals, err := builder.BuildChain(context.Background(), req, ptoType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []engine.UserID{"mgr-1", "appr-a"}
	if len(approvals) != len(want) {
		t.Fatalf("expected %d approvals, got %d", len(want), len(approvals))
	}
	for i, a := range approvals {
		if a.ApproverID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], a.ApproverID)
		}
	}
}

func TestBuildChain_RequesterNeverApprovesThemselves(t *testing.T) {
	// GIVEN: The requester is listed as a specific approver
	// WHEN: The chain is built
	// THEN: The requester is removed from the chain

	builder, directory, _ := chainFixture("")
	directory.AddUser(userWithManager("emp-1", "mgr-1"))

	req := pendingRequest("req-1", "emp-1")
	ptoType := &engine.PtoType{
		ID:                 "vacation",
		MultiLevelApproval: true,
		SpecificApprovers:  []engine.UserID{"emp-1", "appr-a"},
	}

	approvals, err := builder.BuildChain(context.Background(), req, ptoType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range approvals {
		if a.ApproverID == "emp-1" {
			t.Error("requester must not appear as their own approver")
		}
	}
}

func TestBuildChain_DisabledHierarchySkipsManager(t *testing.T) {
	// GIVEN: A multi-level type with hierarchy approval disabled
	// WHEN: The chain is built
	// THEN: Only the specific approvers appear

	builder, directory, _ := chainFixture("")
	directory.AddUser(userWithManager("emp-1", "mgr-1"))

	req := pendingRequest("req-1", "emp-1")
	ptoType := &engine.PtoType{
		ID:                       "vacation",
		MultiLevelApproval:       true,
		DisableHierarchyApproval: true,
		SpecificApprovers:        []engine.UserID{"appr-a"},
	}

	approvals, err := builder.BuildChain(context.Background(), req, ptoType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(approvals) != 1 || approvals[0].ApproverID != "appr-a" {
		t.Fatalf("expected single approver appr-a, got %v", approvals)
	}
}

func TestBuildChain_FallbackWhenNoApproverResolves(t *testing.T) {
	// GIVEN: A requester with no manager and a configured fallback
	// WHEN: The chain is built for a single-level type
	// THEN: One pending row addressed to the fallback approver

	builder, directory, _ := chainFixture("admin-1")
	directory.AddUser(&engine.User{ID: "emp-1"})

	req := pendingRequest("req-1", "emp-1")
	ptoType := &engine.PtoType{ID: "vacation"}

	approvals, err := builder.BuildChain(context.Background(), req, ptoType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(approvals) != 1 || approvals[0].ApproverID != "admin-1" {
		t.Fatalf("expected fallback approver admin-1, got %v", approvals)
	}
}

func TestBuildChain_NoApproverNoFallbackFails(t *testing.T) {
	// GIVEN: No manager and no fallback configured
	// WHEN: The chain is built
	// THEN: A configuration error, no rows persisted

	builder, directory, requests := chainFixture("")
	directory.AddUser(&engine.User{ID: "emp-1"})

	req := pendingRequest("req-1", "emp-1")
	_, err := builder.BuildChain(context.Background(), req, &engine.PtoType{ID: "vacation"})
	if !errors.Is(err, engine.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	stored, _ := requests.ListApprovals(context.Background(), "req-1")
	if len(stored) != 0 {
		t.Errorf("expected no stored approvals, got %d", len(stored))
	}
}

func TestBuildChain_NilTypeIsConfigurationError(t *testing.T) {
	builder, directory, _ := chainFixture("admin-1")
	directory.AddUser(userWithManager("emp-1", "mgr-1"))

	_, err := builder.BuildChain(context.Background(), pendingRequest("req-1", "emp-1"), nil)
	if !errors.Is(err, engine.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestBuildChain_UnknownRequesterIsConfigurationError(t *testing.T) {
	builder, _, _ := chainFixture("admin-1")

	_, err := builder.BuildChain(context.Background(), pendingRequest("req-1", "ghost"), &engine.PtoType{ID: "vacation"})
	if !errors.Is(err, engine.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

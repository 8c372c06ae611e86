package engine_test

import (
	"context"
	"testing"

	"github.com/warp/pto-engine/engine"
	"github.com/warp/pto-engine/engine/store"
)

// =============================================================================
// EMERGENCY OVERRIDE TESTS
// =============================================================================

func overrideFixture() (*engine.OverrideController, *store.TxMemory) {
	requests := store.NewTxMemory()
	return engine.NewOverrideController(requests, nil), requests
}

func conflictedRequest(id engine.RequestID) *engine.PtoRequest {
	return &engine.PtoRequest{
		ID:        id,
		UserID:    "emp-1",
		TypeID:    "vacation",
		StartDate: engine.NewDate(2026, 12, 22),
		EndDate:   engine.NewDate(2026, 12, 23),
		Status:    engine.RequestPending,
		Verdict: &engine.VerdictSnapshot{
			Verdict: engine.Verdict{
				Conflicts: []engine.Conflict{{
					BlackoutID:   "b-1",
					BlackoutName: "Year-End Freeze",
					Message:      "Requested dates fall within blackout period",
					CanOverride:  true,
				}},
			},
		},
	}
}

func TestRequestOverride_RequiresConflictsAndReason(t *testing.T) {
	controller, requests := overrideFixture()

	// No stored conflicts: refused.
	clean := &engine.PtoRequest{ID: "req-clean", UserID: "emp-1", Status: engine.RequestPending}
	requests.SeedRequest(clean)
	if err := controller.RequestOverride(context.Background(), clean, "family emergency"); err == nil {
		t.Error("expected error for request without conflicts")
	}

	// Missing reason: refused.
	req := conflictedRequest("req-1")
	requests.SeedRequest(req)
	if err := controller.RequestOverride(context.Background(), req, ""); err == nil {
		t.Error("expected error for empty reason")
	}

	// Valid: override recorded as pending.
	if err := controller.RequestOverride(context.Background(), req, "family emergency"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := requests.GetRequest(context.Background(), "req-1")
	if !stored.Override.Pending() {
		t.Errorf("expected pending override, got %+v", stored.Override)
	}
	if stored.Override.Reason != "family emergency" {
		t.Errorf("expected reason to be stored, got %q", stored.Override.Reason)
	}
}

func TestDecide_WithoutRequestedOverrideFailsWithoutMutation(t *testing.T) {
	// GIVEN: A request with no pending override
	// WHEN: An approver decides an override anyway
	// THEN: {success: false} with a message, and nothing changes

	controller, requests := overrideFixture()
	req := conflictedRequest("req-1")
	requests.SeedRequest(req)

	decision, err := controller.Decide(context.Background(), req, "mgr-1", true, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Success {
		t.Error("expected failure for undecidable override")
	}
	if decision.Message == "" {
		t.Error("expected explanatory message")
	}

	stored, _ := requests.GetRequest(context.Background(), "req-1")
	if stored.Status != engine.RequestPending || stored.Override.Requested {
		t.Errorf("expected request untouched, got %+v", stored)
	}
}

func TestDecide_RequesterCannotDecideTheirOwnOverride(t *testing.T) {
	controller, requests := overrideFixture()
	req := conflictedRequest("req-1")
	requests.SeedRequest(req)
	if err := controller.RequestOverride(context.Background(), req, "emergency"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decision, err := controller.Decide(context.Background(), req, "emp-1", true, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Success {
		t.Error("expected self-decision to fail")
	}

	stored, _ := requests.GetRequest(context.Background(), "req-1")
	if !stored.Override.Pending() {
		t.Errorf("expected override still pending, got %+v", stored.Override)
	}
}

func TestDecide_ApprovalReopensBlackoutDenial(t *testing.T) {
	// GIVEN: A request denied because of a blackout, with a pending override
	// WHEN: The override is approved
	// THEN: The request re-enters the pending flow, denial cleared

	controller, requests := overrideFixture()
	req := conflictedRequest("req-1")
	reason := "Request denied due to blackout conflict: overlapping freeze"
	req.Status = engine.RequestDenied
	req.DenialReason = &reason
	req.Override = engine.OverrideState{Requested: true, Reason: "emergency"}
	requests.SeedRequest(req)

	decision, err := controller.Decide(context.Background(), req, "mgr-1", true, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Success {
		t.Fatalf("expected success, got %+v", decision)
	}

	stored, _ := requests.GetRequest(context.Background(), "req-1")
	if stored.Status != engine.RequestPending {
		t.Errorf("expected status pending, got %s", stored.Status)
	}
	if stored.DenialReason != nil {
		t.Errorf("expected denial reason cleared, got %q", *stored.DenialReason)
	}
	if stored.Override.Approved == nil || !*stored.Override.Approved {
		t.Errorf("expected approved override, got %+v", stored.Override)
	}
	if stored.Override.DecidedBy != "mgr-1" || stored.Override.DecidedAt == nil {
		t.Errorf("expected decision stamp, got %+v", stored.Override)
	}
}

func TestDecide_ApprovalLeavesUnrelatedDenialAlone(t *testing.T) {
	// GIVEN: A request denied for a reason unrelated to blackouts
	// WHEN: The override is approved
	// THEN: The denial stands; only the override state changes

	controller, requests := overrideFixture()
	req := conflictedRequest("req-1")
	reason := "Insufficient balance"
	req.Status = engine.RequestDenied
	req.DenialReason = &reason
	req.Override = engine.OverrideState{Requested: true, Reason: "emergency"}
	requests.SeedRequest(req)

	if _, err := controller.Decide(context.Background(), req, "mgr-1", true, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := requests.GetRequest(context.Background(), "req-1")
	if stored.Status != engine.RequestDenied {
		t.Errorf("expected status to stay denied, got %s", stored.Status)
	}
	if stored.DenialReason == nil || *stored.DenialReason != "Insufficient balance" {
		t.Errorf("expected original denial reason preserved, got %v", stored.DenialReason)
	}
}

func TestDecide_DenialDeniesRequestAndClearsOverride(t *testing.T) {
	controller, requests := overrideFixture()
	req := conflictedRequest("req-1")
	req.Override = engine.OverrideState{Requested: true, Reason: "emergency"}
	requests.SeedRequest(req)

	decision, err := controller.Decide(context.Background(), req, "mgr-1", false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Success {
		t.Fatalf("expected success, got %+v", decision)
	}

	stored, _ := requests.GetRequest(context.Background(), "req-1")
	if stored.Status != engine.RequestDenied {
		t.Errorf("expected status denied, got %s", stored.Status)
	}
	if stored.DenialReason == nil || *stored.DenialReason != "Emergency override denied" {
		t.Errorf("expected default denial reason, got %v", stored.DenialReason)
	}
	if stored.Override.Requested || stored.Override.Approved != nil {
		t.Errorf("expected override cleared, got %+v", stored.Override)
	}
	if stored.Override.DecidedBy != "mgr-1" {
		t.Errorf("expected decision stamp preserved, got %+v", stored.Override)
	}
}

/*
override.go - Emergency override state machine

PURPOSE:
  Lets a requester flag a conflicting request as an emergency and an
  approver approve or deny that override.

STATES:
  none -> requested -> approved | denied

  Requesting requires stored conflicts on the request. Approving a request
  that was previously denied specifically because of a blackout conflict
  re-opens it (status back to pending, denial cleared) so it re-enters the
  normal approval flow; any other prior status is left untouched. Denying
  forces the request to denied and clears the override.

RESULTS:
  Deciding an override that was never requested is an expected
  caller-reachable state, so it returns a structured {success, message}
  result instead of an error.

SEE ALSO:
  - blackout.go: produces the conflicts that make an override meaningful
*/
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// blackoutDenialMarkers identify denial reasons attributable to a blackout
// conflict. Case-insensitive substring match.
var blackoutDenialMarkers = []string{"blackout", "restricted period"}

const defaultOverrideDenialReason = "Emergency override denied"

// OverrideDecision is the structured result of an override decision.
type OverrideDecision struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// =============================================================================
// CONTROLLER
// =============================================================================

type OverrideController struct {
	Store  RequestStore
	Logger *zap.Logger
}

func NewOverrideController(store RequestStore, logger *zap.Logger) *OverrideController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideController{Store: store, Logger: logger}
}

// RequestOverride flags a conflicting request as an emergency. The reason
// is required; the request must carry stored conflicts.
func (c *OverrideController) RequestOverride(ctx context.Context, req *PtoRequest, reason string) error {
	if req.Verdict == nil || !req.Verdict.HasConflicts() {
		return fmt.Errorf("request %s has no blackout conflicts to override", req.ID)
	}
	if reason == "" {
		return fmt.Errorf("emergency override requires a reason")
	}

	req.Override = OverrideState{Requested: true, Reason: reason}
	req.UpdatedAt = time.Now().UTC()

	if err := c.Store.UpdateRequest(ctx, req); err != nil {
		c.Logger.Error("failed to record override request",
			zap.String("request_id", string(req.ID)),
			zap.String("user_id", string(req.UserID)),
			zap.Error(err))
		return fmt.Errorf("failed to record override request: %w", err)
	}
	return nil
}

// Decide approves or denies a pending override request.
func (c *OverrideController) Decide(ctx context.Context, req *PtoRequest, approver UserID, approved bool, reason string) (*OverrideDecision, error) {
	if !req.Override.Pending() {
		return &OverrideDecision{
			Success: false,
			Message: "no emergency override has been requested for this request",
		}, nil
	}
	if approver == req.UserID {
		return &OverrideDecision{
			Success: false,
			Message: "requester cannot decide their own emergency override",
		}, nil
	}

	now := time.Now().UTC()
	if approved {
		c.applyApproval(req, approver, now)
	} else {
		c.applyDenial(req, approver, reason, now)
	}
	req.UpdatedAt = now

	if err := c.Store.UpdateRequest(ctx, req); err != nil {
		c.Logger.Error("failed to record override decision",
			zap.String("request_id", string(req.ID)),
			zap.String("approver_id", string(approver)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record override decision: %w", err)
	}

	msg := "emergency override denied"
	if approved {
		msg = "emergency override approved"
	}
	return &OverrideDecision{Success: true, Message: msg}, nil
}

func (c *OverrideController) applyApproval(req *PtoRequest, approver UserID, now time.Time) {
	yes := true
	req.Override.Approved = &yes
	req.Override.DecidedBy = approver
	req.Override.DecidedAt = &now

	// A request denied because of the blackout itself re-enters the normal
	// approval flow once the override is granted.
	if req.Status == RequestDenied && deniedForBlackout(req.DenialReason) {
		req.Status = RequestPending
		req.DenialReason = nil
	}
}

func (c *OverrideController) applyDenial(req *PtoRequest, approver UserID, reason string, now time.Time) {
	if reason == "" {
		reason = defaultOverrideDenialReason
	}
	req.Status = RequestDenied
	req.DenialReason = &reason
	req.Override = OverrideState{DecidedBy: approver, DecidedAt: &now}
}

// deniedForBlackout reports whether a denial reason is attributable to a
// blackout conflict.
func deniedForBlackout(reason *string) bool {
	if reason == nil {
		return false
	}
	lower := strings.ToLower(*reason)
	for _, marker := range blackoutDenialMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

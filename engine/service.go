/*
service.go - External operation surface

PURPOSE:
  The facade the surrounding system (controllers) calls in-process. Wires
  the chain builder, blackout evaluator, override controller, and
  hierarchy reconciler behind the operation set:

    CreateApprovalChain(request)
    ValidateAndStore(request, isEmergency) -> Verdict
    AcknowledgeWarnings(request, actingUser) -> bool
    RequestOverride(request, reason)
    DecideOverride(request, approver, approved, reason) -> {success, message}
    DecideApproval(requestID, approver, approved, reason)
    AutoRejectForBlackout(request)
    OnManagerChanged(user, oldManagerID?, newManagerID) -> transferred
    TransferAllPendingApprovals(from, to) -> transferred

ERROR POLICY:
  Construction/validation failures are logged with user/request/blackout
  context and re-raised; override decisions return structured results.
  The caller is expected to wrap create-and-validate-and-chain in one
  transaction so a failed submission leaves no partial request behind.

SEE ALSO:
  - chain.go, blackout.go, override.go, reconcile.go: the components
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store     TxRequestStore
	Types     TypeStore
	Directory OrgDirectory
	Holds     BalanceHolds

	Chain      *ChainBuilder
	Evaluator  *Evaluator
	Overrides  *OverrideController
	Reconciler *Reconciler

	Logger *zap.Logger
}

// Config carries the injected engine settings.
type Config struct {
	// FallbackApproverID is the administrative identity assigned when no
	// approver can be determined.
	FallbackApproverID UserID
}

// NewService wires the engine components over the given collaborators.
func NewService(store TxRequestStore, types TypeStore, directory OrgDirectory, catalog BlackoutCatalog, holidays HolidayCalendar, holds BalanceHolds, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if holds == nil {
		holds = NoHolds{}
	}
	return &Service{
		Store:      store,
		Types:      types,
		Directory:  directory,
		Holds:      holds,
		Chain:      NewChainBuilder(directory, store, cfg.FallbackApproverID, logger),
		Evaluator:  NewEvaluator(catalog, store, directory, holidays, logger),
		Overrides:  NewOverrideController(store, logger),
		Reconciler: NewReconciler(store, directory, logger),
		Logger:     logger,
	}
}

// =============================================================================
// SUBMISSION-TIME OPERATIONS
// =============================================================================

// CreateApprovalChain builds the approval chain for a newly created
// request. Called once, immediately after the request is created.
func (s *Service) CreateApprovalChain(ctx context.Context, req *PtoRequest) error {
	ptoType, err := s.Types.GetPtoType(ctx, req.TypeID)
	if err != nil {
		if IsNotFound(err) {
			return &ConfigurationError{RequestID: req.ID, Field: "pto_type", Detail: fmt.Sprintf("unknown PTO type %s", req.TypeID)}
		}
		return fmt.Errorf("failed to load PTO type %s: %w", req.TypeID, err)
	}

	_, err = s.Chain.BuildChain(ctx, req, ptoType)
	return err
}

// ValidateAndStore evaluates the request against the blackout catalog and
// persists the verdict snapshot onto the request. A fresh evaluation
// resets any earlier acknowledgment.
func (s *Service) ValidateAndStore(ctx context.Context, req *PtoRequest, isEmergency bool) (*Verdict, error) {
	user, err := s.Directory.GetUser(ctx, req.UserID)
	if err != nil {
		s.Logger.Error("failed to resolve requester",
			zap.String("request_id", string(req.ID)),
			zap.String("user_id", string(req.UserID)),
			zap.Error(err))
		return nil, err
	}

	verdict, err := s.Evaluator.ValidateRequest(ctx, req, user, isEmergency)
	if err != nil {
		return nil, err
	}

	req.Verdict = &VerdictSnapshot{Verdict: *verdict}
	req.UpdatedAt = time.Now().UTC()
	if err := s.Store.UpdateRequest(ctx, req); err != nil {
		s.Logger.Error("failed to store verdict",
			zap.String("request_id", string(req.ID)),
			zap.String("user_id", string(req.UserID)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store verdict: %w", err)
	}

	return verdict, nil
}

// AcknowledgeWarnings records that the acting user has seen the stored
// warnings. Returns false when there is nothing to acknowledge.
func (s *Service) AcknowledgeWarnings(ctx context.Context, req *PtoRequest, actingUser UserID) (bool, error) {
	if req.Verdict == nil || !req.Verdict.RequiresAcknowledgment() {
		return false, nil
	}

	now := time.Now().UTC()
	req.Verdict.Acknowledged = true
	req.Verdict.AcknowledgedBy = actingUser
	req.Verdict.AcknowledgedAt = &now
	req.UpdatedAt = now

	if err := s.Store.UpdateRequest(ctx, req); err != nil {
		return false, fmt.Errorf("failed to store acknowledgment: %w", err)
	}
	return true, nil
}

// AutoRejectForBlackout denies a request whose stored verdict carries
// conflicts and reverses any pending-balance hold. A request without
// conflicts is left untouched.
func (s *Service) AutoRejectForBlackout(ctx context.Context, req *PtoRequest) error {
	if req.Verdict == nil || !req.Verdict.HasConflicts() {
		return nil
	}

	reason := fmt.Sprintf("Request denied due to blackout conflict: %s", req.Verdict.Conflicts[0].Message)
	req.Status = RequestDenied
	req.DenialReason = &reason
	req.UpdatedAt = time.Now().UTC()

	if err := s.Store.UpdateRequest(ctx, req); err != nil {
		s.Logger.Error("auto-reject failed",
			zap.String("request_id", string(req.ID)),
			zap.String("user_id", string(req.UserID)),
			zap.Error(err))
		return fmt.Errorf("failed to auto-reject request: %w", err)
	}

	released, err := s.Holds.ReleaseHold(ctx, req.ID)
	if err != nil {
		s.Logger.Error("failed to release balance hold",
			zap.String("request_id", string(req.ID)),
			zap.String("user_id", string(req.UserID)),
			zap.Error(err))
		return fmt.Errorf("failed to release balance hold: %w", err)
	}
	if !released.IsZero() {
		s.Logger.Info("released balance hold",
			zap.String("request_id", string(req.ID)),
			zap.String("days", released.String()))
	}
	return nil
}

// =============================================================================
// OVERRIDE OPERATIONS
// =============================================================================

// RequestOverride flags a conflicting request as an emergency.
func (s *Service) RequestOverride(ctx context.Context, req *PtoRequest, reason string) error {
	return s.Overrides.RequestOverride(ctx, req, reason)
}

// DecideOverride approves or denies a pending emergency override.
func (s *Service) DecideOverride(ctx context.Context, req *PtoRequest, approver UserID, approved bool, reason string) (*OverrideDecision, error) {
	return s.Overrides.Decide(ctx, req, approver, approved, reason)
}

// =============================================================================
// APPROVER DECISIONS
// =============================================================================

// DecideApproval records one approver's decision on their pending row.
// A denial denies the request; once every required row is approved the
// request is approved. The row update is narrow (pending rows only) so a
// concurrent reconciliation pass is never clobbered.
func (s *Service) DecideApproval(ctx context.Context, requestID RequestID, approver UserID, approved bool, reason string) error {
	return s.Store.WithTx(ctx, func(store RequestStore) error {
		req, err := store.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != RequestPending {
			return ErrRequestNotPending
		}

		approvals, err := store.ListApprovals(ctx, requestID)
		if err != nil {
			return &StoreError{Op: "list approvals", RequestID: requestID, UserID: approver, Err: err}
		}

		progress := ComputeProgress(requestID, approvals)
		row := actionableRowFor(progress, approver)
		if row == nil {
			return ErrApprovalNotPending
		}

		now := time.Now().UTC()
		status := ApprovalDenied
		if approved {
			status = ApprovalApproved
		}
		updated, err := store.ResolveApproval(ctx, row.ID, status, now)
		if err != nil {
			return &StoreError{Op: "resolve approval", RequestID: requestID, UserID: approver, Err: err}
		}
		if !updated {
			return ErrApprovalNotPending
		}
		row.Status = status
		row.RespondedAt = &now

		if !approved {
			if reason == "" {
				reason = "Denied by approver"
			}
			req.Status = RequestDenied
			req.DenialReason = &reason
			req.UpdatedAt = now
			return store.UpdateRequest(ctx, req)
		}

		if ComputeProgress(requestID, approvals).AllRequiredApproved() {
			req.Status = RequestApproved
			req.UpdatedAt = now
			return store.UpdateRequest(ctx, req)
		}
		return nil
	})
}

// actionableRowFor returns the approver's pending row at the current
// level, or nil.
func actionableRowFor(p *Progress, approver UserID) *PtoApproval {
	for _, a := range p.Actionable() {
		if a.ApproverID == approver {
			return a
		}
	}
	return nil
}

// =============================================================================
// HIERARCHY OPERATIONS
// =============================================================================

// OnManagerChanged migrates pending approvals after a manager reassignment.
func (s *Service) OnManagerChanged(ctx context.Context, user *User, oldManagerID *UserID, newManagerID UserID) (int, error) {
	return s.Reconciler.OnManagerChanged(ctx, user, oldManagerID, newManagerID)
}

// TransferAllPendingApprovals blanket-reassigns pending approvals between
// two users, for position/role transfers.
func (s *Service) TransferAllPendingApprovals(ctx context.Context, fromUserID, toUserID UserID) (int, error) {
	return s.Reconciler.TransferAllPendingApprovals(ctx, fromUserID, toUserID)
}

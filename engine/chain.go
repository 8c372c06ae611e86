/*
chain.go - Approval chain construction

PURPOSE:
  Builds the ordered, deduplicated list of approvers a PTO request must
  pass through, based on the request's PTO-type configuration and the
  requester's reporting line.

CANDIDATE ORDER:
  1. Direct manager (unless hierarchy approval is disabled for multi-level
     types, or the type is single-level and the requester has no manager)
  2. Configured specific approvers, in configured order (multi-level only)
  3. Fallback approver when nothing else resolves

  Duplicates keep their first-seen position. The requester can never
  appear as their own approver.

LEVELS AND SEQUENCES:
  Every constructed row gets level 1; sequence numbers the candidates
  1, 2, 3, ... in candidate order. True tier gating lives in progress.go,
  which only matters once reconciliation introduces higher levels.

FALLBACK:
  The fallback approver is injected configuration (an administrative
  identity), never a literal. Building a chain with no resolvable
  approver and no configured fallback is a configuration error.

SEE ALSO:
  - progress.go: level gating over constructed rows
  - reconcile.go: mutates these rows on manager changes
*/
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// CHAIN BUILDER
// =============================================================================

type ChainBuilder struct {
	Directory OrgDirectory
	Store     RequestStore

	// FallbackApproverID is assigned when no approver can be determined.
	// Empty means no fallback is configured.
	FallbackApproverID UserID

	Logger *zap.Logger
}

func NewChainBuilder(directory OrgDirectory, store RequestStore, fallback UserID, logger *zap.Logger) *ChainBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainBuilder{
		Directory:          directory,
		Store:              store,
		FallbackApproverID: fallback,
		Logger:             logger,
	}
}

// BuildChain constructs and persists the approval chain for a request.
// Returns the created rows in order.
func (b *ChainBuilder) BuildChain(ctx context.Context, req *PtoRequest, ptoType *PtoType) ([]*PtoApproval, error) {
	if ptoType == nil {
		return nil, &ConfigurationError{RequestID: req.ID, Field: "pto_type", Detail: "request has no PTO type"}
	}
	if req.UserID == "" {
		return nil, &ConfigurationError{RequestID: req.ID, Field: "user", Detail: "request has no requesting user"}
	}

	candidates, err := b.candidates(ctx, req, ptoType)
	if err != nil {
		return nil, err
	}

	candidates = dedupe(candidates, req.UserID)

	if len(candidates) == 0 {
		if b.FallbackApproverID == "" {
			return nil, &ConfigurationError{RequestID: req.ID, Field: "fallback_approver", Detail: "no approver resolved and no fallback configured"}
		}
		b.Logger.Info("no approver resolved, using fallback",
			zap.String("request_id", string(req.ID)),
			zap.String("user_id", string(req.UserID)),
			zap.String("fallback", string(b.FallbackApproverID)))
		candidates = []UserID{b.FallbackApproverID}
	}

	approvals := make([]*PtoApproval, len(candidates))
	for i, approver := range candidates {
		approvals[i] = &PtoApproval{
			ID:         ApprovalID(uuid.NewString()),
			RequestID:  req.ID,
			ApproverID: approver,
			Status:     ApprovalPending,
			Level:      1,
			Sequence:   i + 1,
			IsRequired: true,
		}
	}

	if err := b.Store.InsertApprovals(ctx, approvals); err != nil {
		b.Logger.Error("failed to persist approval chain",
			zap.String("request_id", string(req.ID)),
			zap.String("user_id", string(req.UserID)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to persist approval chain: %w", err)
	}

	return approvals, nil
}

// candidates produces the raw candidate list before deduplication.
func (b *ChainBuilder) candidates(ctx context.Context, req *PtoRequest, ptoType *PtoType) ([]UserID, error) {
	requester, err := b.Directory.GetUser(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, &ConfigurationError{RequestID: req.ID, Field: "user", Detail: "requesting user not in directory"}
		}
		return nil, fmt.Errorf("failed to resolve requester: %w", err)
	}

	var candidates []UserID

	if !ptoType.MultiLevelApproval {
		if requester.ManagerID != nil {
			candidates = append(candidates, *requester.ManagerID)
		}
		return candidates, nil
	}

	if !ptoType.DisableHierarchyApproval && requester.ManagerID != nil {
		candidates = append(candidates, *requester.ManagerID)
	}
	candidates = append(candidates, ptoType.SpecificApprovers...)
	return candidates, nil
}

// dedupe removes duplicates preserving first-seen order, and removes the
// requester (self-approval is forbidden).
func dedupe(candidates []UserID, requester UserID) []UserID {
	seen := make(map[UserID]bool, len(candidates))
	var out []UserID
	for _, c := range candidates {
		if c == "" || c == requester || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

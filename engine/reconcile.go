/*
reconcile.go - Hierarchy reconciliation

PURPOSE:
  Keeps in-flight approval chains consistent when the org hierarchy
  changes. When a user's manager assignment changes, every pending request
  of that user (and of their direct reports) must end up with an approval
  row addressed to the new manager, without losing or duplicating rows.

ALGORITHM (per affected user, one transaction each):
  1. Load the user's pending requests with their approvals.
  2. Per request:
     - old manager known: repoint their pending rows to the new manager in
       place (level/sequence/history preserved)
     - no old manager: insert a new pending row at max(levels)+1 unless a
       pending row for the new manager already exists
     - guarantee step: if the request still has no row for the new manager
       in any status, insert one at max(levels)+1
  3. Return the total transferred count across all affected users.

INVARIANTS:
  - After completion every pending request has at least one approval row
    addressed to the current manager.
  - No approver holds two simultaneous pending rows for one request
    (existence-checked before insert).
  - Idempotent: running the operation twice yields the same row set.

SEE ALSO:
  - store.go: TxRequestStore.WithTx supplies the per-user atomicity
*/
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// RECONCILER
// =============================================================================

type Reconciler struct {
	Store     TxRequestStore
	Directory OrgDirectory
	Logger    *zap.Logger
}

func NewReconciler(store TxRequestStore, directory OrgDirectory, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{Store: store, Directory: directory, Logger: logger}
}

// OnManagerChanged migrates pending approvals for a user whose manager
// assignment changed, and for each of the user's direct reports. Returns
// the number of approval rows transferred or created. A missing new
// manager is a no-op.
func (r *Reconciler) OnManagerChanged(ctx context.Context, user *User, oldManagerID *UserID, newManagerID UserID) (int, error) {
	if newManagerID == "" {
		return 0, nil
	}

	reports, err := r.Directory.DirectReports(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve direct reports of %s: %w", user.ID, err)
	}

	affected := append([]*User{user}, reports...)

	total := 0
	for _, u := range affected {
		userID := u.ID
		err := r.Store.WithTx(ctx, func(s RequestStore) error {
			n, err := r.reconcileUser(ctx, s, userID, oldManagerID, newManagerID)
			if err != nil {
				return err
			}
			total += n
			return nil
		})
		if err != nil {
			r.Logger.Error("hierarchy reconciliation failed",
				zap.String("user_id", string(userID)),
				zap.String("new_manager_id", string(newManagerID)),
				zap.Error(err))
			return total, err
		}
	}

	r.Logger.Info("hierarchy reconciliation complete",
		zap.String("user_id", string(user.ID)),
		zap.String("new_manager_id", string(newManagerID)),
		zap.Int("transferred", total))
	return total, nil
}

// reconcileUser processes one user's pending requests inside a single
// transaction.
func (r *Reconciler) reconcileUser(ctx context.Context, s RequestStore, userID UserID, oldManagerID *UserID, newManagerID UserID) (int, error) {
	requests, err := s.ListPendingRequestsByUser(ctx, userID)
	if err != nil {
		return 0, &StoreError{Op: "list pending requests", UserID: userID, Err: err}
	}

	count := 0
	for _, req := range requests {
		n, err := r.reconcileRequest(ctx, s, req, oldManagerID, newManagerID)
		if err != nil {
			return count, err
		}
		count += n
	}
	return count, nil
}

func (r *Reconciler) reconcileRequest(ctx context.Context, s RequestStore, req *PtoRequest, oldManagerID *UserID, newManagerID UserID) (int, error) {
	count := 0

	if oldManagerID != nil {
		n, err := s.ReassignPendingApprovals(ctx, req.ID, *oldManagerID, newManagerID)
		if err != nil {
			return 0, &StoreError{Op: "reassign approvals", RequestID: req.ID, UserID: req.UserID, Err: err}
		}
		count += n
	} else {
		// First manager assignment: add a step unless one is already
		// pending for the new manager.
		pending, err := s.ApprovalExists(ctx, req.ID, newManagerID, true)
		if err != nil {
			return 0, &StoreError{Op: "approval existence check", RequestID: req.ID, UserID: req.UserID, Err: err}
		}
		if !pending {
			if err := r.insertNextLevel(ctx, s, req, newManagerID); err != nil {
				return 0, err
			}
			count++
		}
	}

	// Guarantee step: the request must end up with a row for the new
	// manager in some status.
	exists, err := s.ApprovalExists(ctx, req.ID, newManagerID, false)
	if err != nil {
		return count, &StoreError{Op: "approval existence check", RequestID: req.ID, UserID: req.UserID, Err: err}
	}
	if !exists {
		if err := r.insertNextLevel(ctx, s, req, newManagerID); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// insertNextLevel appends a pending approval for the approver at
// max(existing levels)+1 with the next free sequence.
func (r *Reconciler) insertNextLevel(ctx context.Context, s RequestStore, req *PtoRequest, approver UserID) error {
	approvals, err := s.ListApprovals(ctx, req.ID)
	if err != nil {
		return &StoreError{Op: "list approvals", RequestID: req.ID, UserID: req.UserID, Err: err}
	}

	level, sequence := nextLevelAndSequence(approvals)
	approval := &PtoApproval{
		ID:         ApprovalID(uuid.NewString()),
		RequestID:  req.ID,
		ApproverID: approver,
		Status:     ApprovalPending,
		Level:      level,
		Sequence:   sequence,
		IsRequired: true,
	}

	if err := s.InsertApprovals(ctx, []*PtoApproval{approval}); err != nil {
		return &StoreError{Op: "insert approval", RequestID: req.ID, UserID: req.UserID, Err: err}
	}
	return nil
}

func nextLevelAndSequence(approvals []*PtoApproval) (int, int) {
	maxLevel, maxSeq := 0, 0
	for _, a := range approvals {
		if a.Level > maxLevel {
			maxLevel = a.Level
		}
		if a.Sequence > maxSeq {
			maxSeq = a.Sequence
		}
	}
	return maxLevel + 1, maxSeq + 1
}

// =============================================================================
// BLANKET TRANSFER - Position/role moves
// =============================================================================

// TransferAllPendingApprovals repoints every pending approval row from one
// approver to another, regardless of request owner. Unlike
// OnManagerChanged it does not deduplicate against an existing row for
// the target approver.
func (r *Reconciler) TransferAllPendingApprovals(ctx context.Context, fromUserID, toUserID UserID) (int, error) {
	n, err := r.Store.ReassignAllPendingApprovals(ctx, fromUserID, toUserID)
	if err != nil {
		r.Logger.Error("blanket approval transfer failed",
			zap.String("from", string(fromUserID)),
			zap.String("to", string(toUserID)),
			zap.Error(err))
		return 0, fmt.Errorf("failed to transfer approvals from %s to %s: %w", fromUserID, toUserID, err)
	}

	r.Logger.Info("blanket approval transfer complete",
		zap.String("from", string(fromUserID)),
		zap.String("to", string(toUserID)),
		zap.Int("transferred", n))
	return n, nil
}

/*
store.go - Persistence and collaborator interfaces

PURPOSE:
  Defines the boundary between the approval engine and the surrounding
  system. The engine consumes a user/org directory, a PTO-type
  configuration, a blackout catalog, and a request/approval store; it
  emits approval rows and verdict snapshots back through them.

KEY INTERFACES:
  RequestStore:    Request + approval persistence and aggregate counts
  TxRequestStore:  Transactional wrapper (atomic multi-row operations)
  BlackoutCatalog: Blackout definition queries
  TypeStore:       PTO-type configuration lookup
  OrgDirectory:    Manager and direct-report resolution
  BalanceHolds:    Pending-balance hold release on auto-reject

WRITE DISCIPLINE:
  Approval rows are the shared mutable resource, written by chain
  construction, hierarchy reconciliation, and approver decisions. All
  mutating methods are narrowly scoped (update-where-status-pending) so a
  decision made concurrently with a reconciliation pass is never clobbered.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - engine/store: in-memory store for testing/dev

SEE ALSO:
  - reconcile.go: uses TxRequestStore.WithTx for per-user atomicity
  - blackout.go: uses the aggregate count queries
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUEST STORE - Requests, approvals, and aggregate counts
// =============================================================================

type RequestStore interface {
	// GetRequest loads a request with its verdict snapshot.
	// Returns ErrRequestNotFound if absent.
	GetRequest(ctx context.Context, id RequestID) (*PtoRequest, error)

	// UpdateRequest persists status, denial, verdict, and override fields.
	UpdateRequest(ctx context.Context, req *PtoRequest) error

	// ListPendingRequestsByUser returns a user's pending requests.
	ListPendingRequestsByUser(ctx context.Context, userID UserID) ([]*PtoRequest, error)

	// ListRequestsOverlapping returns requests in the given statuses whose
	// inclusive date range overlaps [start, end].
	//
	// LIMITATION: callers that count-then-decide on this (limit_requests
	// admission) race with concurrent submissions; two requests can both
	// observe a count below the limit. The overrun is accepted, not
	// signaled.
	ListRequestsOverlapping(ctx context.Context, start, end Date, statuses []RequestStatus) ([]*PtoRequest, error)

	// ListRequestsStartingOrEndingOn returns requests in the given statuses
	// whose start OR end date falls on one of the weekdays.
	ListRequestsStartingOrEndingOn(ctx context.Context, weekdays []time.Weekday, statuses []RequestStatus) ([]*PtoRequest, error)

	// InsertApprovals persists approval rows. A batch is all-or-nothing.
	InsertApprovals(ctx context.Context, approvals []*PtoApproval) error

	// ListApprovals returns a request's approval rows ordered by sequence.
	ListApprovals(ctx context.Context, requestID RequestID) ([]*PtoApproval, error)

	// ReassignPendingApprovals repoints pending rows of one request from
	// one approver to another, preserving level/sequence/history.
	// Returns the number of rows updated.
	ReassignPendingApprovals(ctx context.Context, requestID RequestID, from, to UserID) (int, error)

	// ReassignAllPendingApprovals repoints every pending row regardless of
	// request owner. Used for position/role transfers. Does not deduplicate
	// against existing rows for the target approver.
	ReassignAllPendingApprovals(ctx context.Context, from, to UserID) (int, error)

	// ApprovalExists reports whether the request already has a row for the
	// approver, optionally restricted to pending rows.
	ApprovalExists(ctx context.Context, requestID RequestID, approver UserID, pendingOnly bool) (bool, error)

	// ResolveApproval moves a row from pending to the given status and
	// stamps RespondedAt. Returns false if the row was no longer pending
	// (narrow update: never clobbers a concurrent decision).
	ResolveApproval(ctx context.Context, id ApprovalID, status ApprovalStatus, at time.Time) (bool, error)
}

// TxRequestStore wraps RequestStore with transaction support.
// HierarchyReconciler requires this: reassignment and the idempotence
// guarantee insert must be observed together or not at all.
type TxRequestStore interface {
	RequestStore

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(RequestStore) error) error
}

// =============================================================================
// BLACKOUT CATALOG - Consumed via query operations
// =============================================================================

type BlackoutCatalog interface {
	// ActiveOverlapping returns active non-recurring blackouts whose range
	// overlaps [start, end], in catalog order.
	ActiveOverlapping(ctx context.Context, start, end Date) ([]*PtoBlackout, error)

	// ActiveRecurring returns all active recurring blackouts in catalog
	// order. Pattern intersection is the evaluator's job.
	ActiveRecurring(ctx context.Context) ([]*PtoBlackout, error)
}

// =============================================================================
// TYPE STORE - PTO type configuration lookup
// =============================================================================

type TypeStore interface {
	// GetPtoType returns ErrTypeNotFound if absent.
	GetPtoType(ctx context.Context, id PtoTypeID) (*PtoType, error)
}

// =============================================================================
// ORG DIRECTORY - Reporting relationships (external collaborator)
// =============================================================================

type OrgDirectory interface {
	// GetUser returns ErrUserNotFound if absent.
	GetUser(ctx context.Context, id UserID) (*User, error)

	// DirectReports returns the users directly managed by the given user.
	DirectReports(ctx context.Context, managerID UserID) ([]*User, error)
}

// =============================================================================
// BALANCE HOLDS - Pending-balance reversal on auto-reject
// =============================================================================

// BalanceHolds releases the pending-balance hold taken when a request was
// submitted. Creating holds is the balance subsystem's concern.
type BalanceHolds interface {
	// ReleaseHold reverses the hold for a request and returns the amount
	// released (zero if no hold existed).
	ReleaseHold(ctx context.Context, requestID RequestID) (decimal.Decimal, error)
}

// NoHolds is a no-op hold release for deployments without balance tracking.
type NoHolds struct{}

func (NoHolds) ReleaseHold(context.Context, RequestID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

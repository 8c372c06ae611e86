/*
Package engine implements the PTO approval and conflict-resolution core.

PURPOSE:
  This package contains the logic that decides who must approve a PTO
  request, whether the requested dates collide with company blackout
  restrictions, and how in-flight approval records survive organizational
  changes.

KEY CONCEPTS IN THIS FILE (types.go):
  - PtoRequest:  A request for paid time off over an inclusive date range
  - PtoApproval: One approver's slot in a request's approval chain
  - PtoType:     Read-only configuration describing how a type is approved
  - PtoBlackout: A fixed-range or recurring-weekday restriction
  - Verdict:     The structured result of blackout evaluation

DESIGN PRINCIPLES:
  1. Type Safety: Strong typing for IDs prevents mixing user/request ids
  2. Determinism: Chain ordering and verdict ordering are insertion-ordered
  3. Precision: decimal.Decimal for day totals, no floating-point drift
  4. Statuses transition, rows are never deleted

USAGE:
  verdict, err := evaluator.Validate(ctx, user, start, end, typeID, false)
  if verdict.CanSubmit() {
      approvals, err := builder.BuildChain(ctx, request, ptoType)
  }

SEE ALSO:
  - chain.go:     approval chain construction
  - blackout.go:  blackout evaluation
  - reconcile.go: hierarchy reconciliation
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type RequestID string
type ApprovalID string
type BlackoutID string
type PtoTypeID string

// =============================================================================
// USERS - Directory view of an employee (consumed, not owned)
// =============================================================================

// User is the slice of the org directory the engine needs: reporting line,
// position, and department membership for blackout scoping.
type User struct {
	ID            UserID
	Name          string
	ManagerID     *UserID
	PositionID    string
	DepartmentIDs []string
}

// =============================================================================
// PTO REQUEST
// =============================================================================

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestDenied    RequestStatus = "denied"
	RequestCancelled RequestStatus = "cancelled"
	RequestWithdrawn RequestStatus = "withdrawn"
)

// PtoRequest is a request for time off. Requests are never deleted, only
// status-transitioned.
type PtoRequest struct {
	ID        RequestID
	UserID    UserID
	TypeID    PtoTypeID
	StartDate Date
	EndDate   Date
	TotalDays decimal.Decimal
	Status    RequestStatus

	// Set when the request is denied; cleared if an emergency override
	// approval re-opens it.
	DenialReason *string

	// Snapshot of the blackout evaluation at submission time.
	Verdict *VerdictSnapshot

	// Emergency override sub-state.
	Override OverrideState

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *PtoRequest) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// OverrideState tracks the requester-initiated emergency override.
// Transitions: none -> requested -> approved | denied.
type OverrideState struct {
	Requested bool
	Approved  *bool
	Reason    string
	DecidedBy UserID
	DecidedAt *time.Time
}

// Pending returns true when an override has been requested but not decided.
func (o OverrideState) Pending() bool { return o.Requested && o.Approved == nil }

// =============================================================================
// PTO APPROVAL - One approver slot in a request's chain
// =============================================================================

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

// PtoApproval is one row of a request's approval chain.
//
// INVARIANTS:
//   - No two rows of a request share an approver while both are pending
//   - Level and Sequence are positive; Sequence is unique within a request
type PtoApproval struct {
	ID          ApprovalID
	RequestID   RequestID
	ApproverID  UserID
	Status      ApprovalStatus
	Level       int
	Sequence    int
	IsRequired  bool
	RespondedAt *time.Time
}

// =============================================================================
// PTO TYPE - Approval configuration (read-only to the engine)
// =============================================================================

type PtoType struct {
	ID   PtoTypeID
	Name string

	// MultiLevelApproval enables the specific-approver list on top of the
	// hierarchy manager.
	MultiLevelApproval bool

	// DisableHierarchyApproval skips the direct manager when multi-level
	// approval is on.
	DisableHierarchyApproval bool

	// SpecificApprovers are appended in configured order.
	SpecificApprovers []UserID

	// UsesBalance is consumed by the balance subsystem, not here.
	UsesBalance bool
}

// =============================================================================
// PTO BLACKOUT - Restriction definition
// =============================================================================

type RestrictionType string

const (
	RestrictFullBlock     RestrictionType = "full_block"
	RestrictLimitRequests RestrictionType = "limit_requests"
	RestrictWarningOnly   RestrictionType = "warning_only"
)

type BlackoutScope string

const (
	ScopeCompany     BlackoutScope = "company"
	ScopePosition    BlackoutScope = "position"
	ScopeDepartments BlackoutScope = "departments"
	ScopeUsers       BlackoutScope = "users"
)

// PtoBlackout restricts requests over a fixed date range or a recurring
// weekday pattern. Exactly one of the two is meaningful: Weekdays when
// Recurring is set, StartDate/EndDate otherwise.
type PtoBlackout struct {
	ID   BlackoutID
	Name string

	StartDate Date
	EndDate   Date
	Recurring bool
	Weekdays  []time.Weekday

	Scope         BlackoutScope
	PositionID    string
	DepartmentIDs []string
	UserIDs       []UserID

	Restriction RestrictionType

	// Strict and AllowEmergencyOverride are independent: a strict blackout
	// may still allow override when AllowEmergencyOverride is set.
	Strict                 bool
	AllowEmergencyOverride bool

	// MaxRequestsAllowed is only meaningful for RestrictLimitRequests.
	MaxRequestsAllowed int

	// PtoTypeIDs limits which types the blackout applies to. Empty = all.
	PtoTypeIDs []PtoTypeID

	// IsHoliday waives the blackout entirely when the request range
	// overlaps a company holiday.
	IsHoliday bool

	Active bool
}

func (b *PtoBlackout) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// AppliesToType returns true if the blackout covers the given PTO type.
func (b *PtoBlackout) AppliesToType(typeID PtoTypeID) bool {
	if len(b.PtoTypeIDs) == 0 {
		return true
	}
	for _, id := range b.PtoTypeIDs {
		if id == typeID {
			return true
		}
	}
	return false
}

// AppliesToUser is the scope predicate: company-wide, or a disjunctive
// match on explicit user set, position, or department intersection.
func (b *PtoBlackout) AppliesToUser(user *User) bool {
	if b.Scope == ScopeCompany {
		return true
	}
	for _, id := range b.UserIDs {
		if id == user.ID {
			return true
		}
	}
	if b.PositionID != "" && b.PositionID == user.PositionID {
		return true
	}
	for _, dept := range b.DepartmentIDs {
		for _, userDept := range user.DepartmentIDs {
			if dept == userDept {
				return true
			}
		}
	}
	return false
}

// WeekdayNames returns the configured weekdays as display names, in the
// configured order.
func (b *PtoBlackout) WeekdayNames() []string {
	names := make([]string, len(b.Weekdays))
	for i, wd := range b.Weekdays {
		names[i] = wd.String()
	}
	return names
}

// =============================================================================
// VERDICT - Structured result of blackout evaluation
// =============================================================================

// Conflict blocks submission. One per applicable blackout at most.
type Conflict struct {
	BlackoutID   BlackoutID `json:"blackout_id"`
	BlackoutName string     `json:"blackout_name"`
	Message      string     `json:"message"`

	// CanOverride mirrors the blackout's AllowEmergencyOverride flag.
	CanOverride bool `json:"can_override"`

	// RemainingSlots is set for limit_requests conflicts (always 0 there).
	RemainingSlots *int `json:"remaining_slots,omitempty"`

	// ConflictingDays lists formatted dates for recurring blackouts.
	ConflictingDays []string `json:"conflicting_days,omitempty"`
}

// Warning lets submission proceed, possibly with acknowledgment.
type Warning struct {
	BlackoutID   BlackoutID `json:"blackout_id"`
	BlackoutName string     `json:"blackout_name"`
	Message      string     `json:"message"`

	// Emergency-override-applied warnings: the request may proceed but the
	// override still needs approval and a reason.
	OverrideApplied  bool `json:"override_applied,omitempty"`
	RequiresApproval bool `json:"requires_approval,omitempty"`
	ReasonRequired   bool `json:"reason_required,omitempty"`

	// limit_requests warnings.
	RemainingSlots  *int `json:"remaining_slots,omitempty"`
	WillConsumeSlot bool `json:"will_consume_slot,omitempty"`

	// warning_only warnings.
	RequiresJustification bool `json:"requires_justification,omitempty"`

	ConflictingDays []string `json:"conflicting_days,omitempty"`
}

// Verdict aggregates all per-blackout results for one evaluation.
// Ordering is deterministic: non-recurring blackouts first, then recurring,
// each in catalog order.
type Verdict struct {
	Conflicts []Conflict `json:"conflicts"`
	Warnings  []Warning  `json:"warnings"`

	// Emergency records whether the evaluation ran with the emergency flag.
	Emergency bool `json:"emergency"`
}

func (v *Verdict) HasConflicts() bool { return len(v.Conflicts) > 0 }
func (v *Verdict) HasWarnings() bool  { return len(v.Warnings) > 0 }
func (v *Verdict) CanSubmit() bool    { return !v.HasConflicts() }

// RequiresAcknowledgment is true when the requester must acknowledge
// warnings before the request proceeds.
func (v *Verdict) RequiresAcknowledgment() bool { return v.HasWarnings() }

// RequiresOverride is true when the request can only proceed through an
// approved emergency override.
func (v *Verdict) RequiresOverride() bool { return v.HasConflicts() && v.Emergency }

// VerdictSnapshot is the verdict as persisted onto the request, plus
// acknowledgment state.
type VerdictSnapshot struct {
	Verdict

	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy UserID     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

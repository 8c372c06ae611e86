/*
blackout.go - Blackout evaluation

PURPOSE:
  Decides whether a requested date range collides with company blackout
  restrictions and produces the structured verdict: conflicts (block
  submission), warnings (submission proceeds, possibly with
  acknowledgment), and the derived flags.

CANDIDATE SELECTION:
  Active non-recurring blackouts overlapping the request range, then all
  active recurring blackouts whose weekday pattern intersects the range.
  The union order (non-recurring first, then recurring, each in catalog
  order) determines conflict/warning order in the verdict.

PER-BLACKOUT FILTERING:
  A blackout is skipped silently unless all hold:
  - scope match (company-wide, explicit user, position, or department
    intersection)
  - type match (empty type set = all types)
  - holiday waiver: a holiday-flagged blackout never applies when the
    request range overlaps a company holiday

RESTRICTION SEMANTICS:
  full_block      conflict, unless emergency + override allowed (warning)
  limit_requests  count existing approved/pending requests against the
                  configured maximum; at the limit -> conflict, under it
                  -> slot-consuming warning whose remaining_slots is net
                  of the slot this request takes
  warning_only    always a warning requiring justification
  anything else   treated as full_block

  Recurring blackouts evaluate the same three cases over the specific
  conflicting days; their request counting matches start/end day-of-week
  only, a looser heuristic than the non-recurring range overlap.

CONCURRENCY:
  The limit_requests count-then-decide path is a documented race: two
  simultaneous submissions can both read a count below the limit and both
  be admitted. See RequestStore.ListRequestsOverlapping.

SEE ALSO:
  - outcome.go: the tagged union each blackout evaluates to
  - types.go:   Conflict/Warning payloads and the scope predicate
*/
package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// countedStatuses are the request statuses that consume limit_requests
// slots.
var countedStatuses = []RequestStatus{RequestApproved, RequestPending}

// =============================================================================
// EVALUATOR
// =============================================================================

type Evaluator struct {
	Catalog   BlackoutCatalog
	Requests  RequestStore
	Directory OrgDirectory
	Holidays  HolidayCalendar
	Logger    *zap.Logger
}

func NewEvaluator(catalog BlackoutCatalog, requests RequestStore, directory OrgDirectory, holidays HolidayCalendar, logger *zap.Logger) *Evaluator {
	if holidays == nil {
		holidays = NoHolidays{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		Catalog:   catalog,
		Requests:  requests,
		Directory: directory,
		Holidays:  holidays,
		Logger:    logger,
	}
}

// Validate evaluates a date range for a user and PTO type and returns the
// verdict. The emergency flag turns overridable full blocks into
// warnings.
func (e *Evaluator) Validate(ctx context.Context, user *User, start, end Date, typeID PtoTypeID, isEmergency bool) (*Verdict, error) {
	return e.validate(ctx, user, start, end, typeID, isEmergency, "")
}

// ValidateRequest evaluates an existing request, excluding the request
// itself from limit_requests counting.
func (e *Evaluator) ValidateRequest(ctx context.Context, req *PtoRequest, user *User, isEmergency bool) (*Verdict, error) {
	return e.validate(ctx, user, req.StartDate, req.EndDate, req.TypeID, isEmergency, req.ID)
}

func (e *Evaluator) validate(ctx context.Context, user *User, start, end Date, typeID PtoTypeID, isEmergency bool, exclude RequestID) (*Verdict, error) {
	reqRange, err := NewDateRange(start, end)
	if err != nil {
		return nil, err
	}

	candidates, err := e.candidates(ctx, start, end)
	if err != nil {
		return nil, err
	}

	// Holiday overlap is shared by every holiday-flagged blackout; resolve
	// it at most once per evaluation.
	holidayChecked := false
	holidayOverlap := false

	var outcomes []Outcome
	for _, b := range candidates {
		if !b.AppliesToUser(user) || !b.AppliesToType(typeID) {
			continue
		}
		if b.IsHoliday {
			if !holidayChecked {
				holidayOverlap, err = e.Holidays.AnyHolidayBetween(ctx, start, end)
				if err != nil {
					e.Logger.Error("holiday lookup failed",
						zap.String("user_id", string(user.ID)),
						zap.String("blackout_id", string(b.ID)),
						zap.Error(err))
					return nil, fmt.Errorf("holiday lookup failed: %w", err)
				}
				holidayChecked = true
			}
			if holidayOverlap {
				continue
			}
		}

		var outcome Outcome
		if b.Recurring {
			outcome, err = e.evaluateRecurring(ctx, b, reqRange, isEmergency, exclude)
		} else {
			outcome, err = e.evaluateFixed(ctx, b, isEmergency, exclude)
		}
		if err != nil {
			e.Logger.Error("blackout evaluation failed",
				zap.String("user_id", string(user.ID)),
				zap.String("blackout_id", string(b.ID)),
				zap.Error(err))
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}

	return Collect(outcomes, isEmergency), nil
}

// candidates returns the union of applicable blackout definitions:
// non-recurring overlapping the range first, then recurring, each in
// catalog order.
func (e *Evaluator) candidates(ctx context.Context, start, end Date) ([]*PtoBlackout, error) {
	fixed, err := e.Catalog.ActiveOverlapping(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("blackout catalog query failed: %w", err)
	}
	recurring, err := e.Catalog.ActiveRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("blackout catalog query failed: %w", err)
	}
	return append(fixed, recurring...), nil
}

// =============================================================================
// NON-RECURRING EVALUATION
// =============================================================================

func (e *Evaluator) evaluateFixed(ctx context.Context, b *PtoBlackout, isEmergency bool, exclude RequestID) (Outcome, error) {
	switch b.Restriction {
	case RestrictLimitRequests:
		count, err := e.countOverlapping(ctx, b, exclude)
		if err != nil {
			return NoOutcome(), err
		}
		return limitOutcome(b, count, nil), nil

	case RestrictWarningOnly:
		return WarningOutcome(Warning{
			BlackoutID:            b.ID,
			BlackoutName:          b.Name,
			Message:               fmt.Sprintf("Requested dates fall within %q (%s to %s); justification is required", b.Name, b.StartDate, b.EndDate),
			RequiresJustification: true,
		}), nil

	default:
		// full_block, and the defensive default for unknown values.
		if isEmergency && b.AllowEmergencyOverride {
			return WarningOutcome(Warning{
				BlackoutID:       b.ID,
				BlackoutName:     b.Name,
				Message:          fmt.Sprintf("Emergency override applied to blackout period %q; approval and a reason are required", b.Name),
				OverrideApplied:  true,
				RequiresApproval: true,
				ReasonRequired:   true,
			}), nil
		}
		return ConflictOutcome(Conflict{
			BlackoutID:   b.ID,
			BlackoutName: b.Name,
			Message:      fmt.Sprintf("Requested dates fall within blackout period %q (%s to %s)", b.Name, b.StartDate, b.EndDate),
			CanOverride:  b.AllowEmergencyOverride,
		}), nil
	}
}

// countOverlapping counts approved/pending requests whose range overlaps
// the blackout's range, restricted to the blackout's type and scope.
func (e *Evaluator) countOverlapping(ctx context.Context, b *PtoBlackout, exclude RequestID) (int, error) {
	existing, err := e.Requests.ListRequestsOverlapping(ctx, b.StartDate, b.EndDate, countedStatuses)
	if err != nil {
		return 0, fmt.Errorf("overlap count failed for blackout %s: %w", b.ID, err)
	}
	return e.countInScope(ctx, b, existing, exclude)
}

// =============================================================================
// RECURRING EVALUATION
// =============================================================================

func (e *Evaluator) evaluateRecurring(ctx context.Context, b *PtoBlackout, reqRange DateRange, isEmergency bool, exclude RequestID) (Outcome, error) {
	hits := reqRange.DaysOnWeekdays(b.Weekdays)
	if len(hits) == 0 {
		return NoOutcome(), nil
	}

	formatted := make([]string, len(hits))
	for i, d := range hits {
		formatted[i] = d.DisplayString()
	}
	dayList := strings.Join(formatted, ", ")
	weekdayList := strings.Join(b.WeekdayNames(), ", ")

	switch b.Restriction {
	case RestrictLimitRequests:
		count, err := e.countWeekdayMatches(ctx, b, exclude)
		if err != nil {
			return NoOutcome(), err
		}
		return limitOutcome(b, count, formatted), nil

	case RestrictWarningOnly:
		return WarningOutcome(Warning{
			BlackoutID:            b.ID,
			BlackoutName:          b.Name,
			Message:               fmt.Sprintf("Requested dates include %s, restricted every %s under %q; justification is required", dayList, weekdayList, b.Name),
			RequiresJustification: true,
			ConflictingDays:       formatted,
		}), nil

	default:
		if isEmergency && b.AllowEmergencyOverride {
			return WarningOutcome(Warning{
				BlackoutID:       b.ID,
				BlackoutName:     b.Name,
				Message:          fmt.Sprintf("Emergency override applied to recurring blackout %q (%s); approval and a reason are required", b.Name, dayList),
				OverrideApplied:  true,
				RequiresApproval: true,
				ReasonRequired:   true,
				ConflictingDays:  formatted,
			}), nil
		}
		return ConflictOutcome(Conflict{
			BlackoutID:      b.ID,
			BlackoutName:    b.Name,
			Message:         fmt.Sprintf("Requested dates include %s, restricted every %s under %q", dayList, weekdayList, b.Name),
			CanOverride:     b.AllowEmergencyOverride,
			ConflictingDays: formatted,
		}), nil
	}
}

// countWeekdayMatches counts approved/pending requests whose start OR end
// date falls on one of the blackout's weekdays, restricted to the
// blackout's type and scope. Day-of-week match on the endpoints only, not
// full range overlap.
func (e *Evaluator) countWeekdayMatches(ctx context.Context, b *PtoBlackout, exclude RequestID) (int, error) {
	existing, err := e.Requests.ListRequestsStartingOrEndingOn(ctx, b.Weekdays, countedStatuses)
	if err != nil {
		return 0, fmt.Errorf("weekday count failed for blackout %s: %w", b.ID, err)
	}
	return e.countInScope(ctx, b, existing, exclude)
}

// =============================================================================
// SHARED COUNTING / LIMIT LOGIC
// =============================================================================

// countInScope applies the blackout's type and scope predicates to a set
// of candidate requests. Requests whose owner is no longer in the
// directory are skipped rather than failing the evaluation.
func (e *Evaluator) countInScope(ctx context.Context, b *PtoBlackout, existing []*PtoRequest, exclude RequestID) (int, error) {
	count := 0
	for _, r := range existing {
		if exclude != "" && r.ID == exclude {
			continue
		}
		if !b.AppliesToType(r.TypeID) {
			continue
		}
		owner, err := e.Directory.GetUser(ctx, r.UserID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return 0, fmt.Errorf("failed to resolve request owner %s: %w", r.UserID, err)
		}
		if !b.AppliesToUser(owner) {
			continue
		}
		count++
	}
	return count, nil
}

func limitOutcome(b *PtoBlackout, count int, conflictingDays []string) Outcome {
	if count >= b.MaxRequestsAllowed {
		zero := 0
		return ConflictOutcome(Conflict{
			BlackoutID:      b.ID,
			BlackoutName:    b.Name,
			Message:         fmt.Sprintf("Blackout period %q has reached its limit of %d concurrent requests", b.Name, b.MaxRequestsAllowed),
			CanOverride:     b.AllowEmergencyOverride,
			RemainingSlots:  &zero,
			ConflictingDays: conflictingDays,
		})
	}
	// The slot this request will consume is already subtracted: with a
	// maximum of 2 and no existing requests, the first submitter sees 1
	// slot remaining, the second sees 0, and the third conflicts.
	remaining := b.MaxRequestsAllowed - count - 1
	return WarningOutcome(Warning{
		BlackoutID:      b.ID,
		BlackoutName:    b.Name,
		Message:         fmt.Sprintf("Blackout period %q is limited to %d concurrent requests; this request will consume a slot, leaving %d", b.Name, b.MaxRequestsAllowed, remaining),
		RemainingSlots:  &remaining,
		WillConsumeSlot: true,
		ConflictingDays: conflictingDays,
	})
}

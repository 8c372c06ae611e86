package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pto-engine/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRequest(id engine.RequestID) *engine.PtoRequest {
	now := time.Now().UTC().Truncate(time.Second)
	return &engine.PtoRequest{
		ID:        id,
		UserID:    "emp-1",
		TypeID:    "vacation",
		StartDate: engine.NewDate(2026, 6, 1),
		EndDate:   engine.NewDate(2026, 6, 5),
		TotalDays: decimal.NewFromInt(5),
		Status:    engine.RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRequestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	req := testRequest("req-1")
	reason := "because"
	req.DenialReason = &reason
	req.Verdict = &engine.VerdictSnapshot{
		Verdict: engine.Verdict{
			Conflicts: []engine.Conflict{{BlackoutID: "b-1", BlackoutName: "Freeze", Message: "blocked"}},
			Warnings:  []engine.Warning{{BlackoutID: "b-2", Message: "heads up", WillConsumeSlot: true}},
		},
		Acknowledged:   true,
		AcknowledgedBy: "emp-1",
	}
	yes := true
	decidedAt := time.Now().UTC().Truncate(time.Second)
	req.Override = engine.OverrideState{
		Requested: true,
		Approved:  &yes,
		Reason:    "emergency",
		DecidedBy: "mgr-1",
		DecidedAt: &decidedAt,
	}

	require.NoError(t, s.SaveRequest(ctx, req))

	got, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)

	assert.Equal(t, req.UserID, got.UserID)
	assert.Equal(t, "2026-06-01", got.StartDate.String())
	assert.Equal(t, "2026-06-05", got.EndDate.String())
	assert.True(t, got.TotalDays.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, engine.RequestPending, got.Status)
	require.NotNil(t, got.DenialReason)
	assert.Equal(t, "because", *got.DenialReason)
	require.NotNil(t, got.Verdict)
	assert.Len(t, got.Verdict.Conflicts, 1)
	assert.Len(t, got.Verdict.Warnings, 1)
	assert.True(t, got.Verdict.Acknowledged)
	require.NotNil(t, got.Override.Approved)
	assert.True(t, *got.Override.Approved)
	assert.Equal(t, engine.UserID("mgr-1"), got.Override.DecidedBy)
	require.NotNil(t, got.Override.DecidedAt)
	assert.True(t, decidedAt.Equal(*got.Override.DecidedAt))
}

func TestGetRequest_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRequest(context.Background(), "ghost")
	assert.True(t, errors.Is(err, engine.ErrRequestNotFound))
}

func TestUpdateRequest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	req := testRequest("req-1")
	require.NoError(t, s.SaveRequest(ctx, req))

	req.Status = engine.RequestDenied
	reason := "conflict"
	req.DenialReason = &reason
	require.NoError(t, s.UpdateRequest(ctx, req))

	got, err := s.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, engine.RequestDenied, got.Status)

	err = s.UpdateRequest(ctx, testRequest("ghost"))
	assert.True(t, errors.Is(err, engine.ErrRequestNotFound))
}

func TestListRequestsOverlapping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inside := testRequest("req-inside")
	require.NoError(t, s.SaveRequest(ctx, inside))

	outside := testRequest("req-outside")
	outside.StartDate = engine.NewDate(2026, 7, 1)
	outside.EndDate = engine.NewDate(2026, 7, 3)
	require.NoError(t, s.SaveRequest(ctx, outside))

	cancelled := testRequest("req-cancelled")
	cancelled.Status = engine.RequestCancelled
	require.NoError(t, s.SaveRequest(ctx, cancelled))

	got, err := s.ListRequestsOverlapping(ctx,
		engine.NewDate(2026, 6, 3), engine.NewDate(2026, 6, 10),
		[]engine.RequestStatus{engine.RequestPending, engine.RequestApproved})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.RequestID("req-inside"), got[0].ID)
}

func TestListRequestsStartingOrEndingOn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// 2026-06-05 is a Friday.
	friday := testRequest("req-friday")
	friday.StartDate = engine.NewDate(2026, 6, 5)
	friday.EndDate = engine.NewDate(2026, 6, 8)
	require.NoError(t, s.SaveRequest(ctx, friday))

	midweek := testRequest("req-midweek")
	midweek.StartDate = engine.NewDate(2026, 6, 2)
	midweek.EndDate = engine.NewDate(2026, 6, 4)
	require.NoError(t, s.SaveRequest(ctx, midweek))

	got, err := s.ListRequestsStartingOrEndingOn(ctx,
		[]time.Weekday{time.Friday},
		[]engine.RequestStatus{engine.RequestPending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.RequestID("req-friday"), got[0].ID)
}

func TestApprovalLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRequest(ctx, testRequest("req-1")))
	require.NoError(t, s.InsertApprovals(ctx, []*engine.PtoApproval{
		{ID: "a-1", RequestID: "req-1", ApproverID: "mgr-1", Status: engine.ApprovalPending, Level: 1, Sequence: 1, IsRequired: true},
		{ID: "a-2", RequestID: "req-1", ApproverID: "appr-a", Status: engine.ApprovalPending, Level: 1, Sequence: 2, IsRequired: true},
	}))

	rows, err := s.ListApprovals(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Sequence)
	assert.Equal(t, 2, rows[1].Sequence)

	exists, err := s.ApprovalExists(ctx, "req-1", "mgr-1", true)
	require.NoError(t, err)
	assert.True(t, exists)

	// Narrow resolve flips only pending rows.
	at := time.Now().UTC()
	updated, err := s.ResolveApproval(ctx, "a-1", engine.ApprovalApproved, at)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = s.ResolveApproval(ctx, "a-1", engine.ApprovalDenied, at)
	require.NoError(t, err)
	assert.False(t, updated, "resolved rows must not be overwritten")

	exists, err = s.ApprovalExists(ctx, "req-1", "mgr-1", true)
	require.NoError(t, err)
	assert.False(t, exists, "pending-only check must skip resolved rows")

	exists, err = s.ApprovalExists(ctx, "req-1", "mgr-1", false)
	require.NoError(t, err)
	assert.True(t, exists, "any-status check must see resolved rows")
}

func TestReassignPendingApprovals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRequest(ctx, testRequest("req-1")))
	require.NoError(t, s.SaveRequest(ctx, testRequest("req-2")))
	require.NoError(t, s.InsertApprovals(ctx, []*engine.PtoApproval{
		{ID: "a-1", RequestID: "req-1", ApproverID: "old-mgr", Status: engine.ApprovalPending, Level: 1, Sequence: 1, IsRequired: true},
		{ID: "a-2", RequestID: "req-1", ApproverID: "old-mgr", Status: engine.ApprovalApproved, Level: 1, Sequence: 2, IsRequired: true},
		{ID: "a-3", RequestID: "req-2", ApproverID: "old-mgr", Status: engine.ApprovalPending, Level: 1, Sequence: 1, IsRequired: true},
	}))

	n, err := s.ReassignPendingApprovals(ctx, "req-1", "old-mgr", "new-mgr")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "approved rows stay put")

	n, err = s.ReassignAllPendingApprovals(ctx, "old-mgr", "new-mgr")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "remaining pending row on req-2")
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRequest(ctx, testRequest("req-1")))

	sentinel := errors.New("boom")
	err := s.WithTx(ctx, func(store engine.RequestStore) error {
		if err := store.InsertApprovals(ctx, []*engine.PtoApproval{
			{ID: "a-1", RequestID: "req-1", ApproverID: "mgr-1", Status: engine.ApprovalPending, Level: 1, Sequence: 1, IsRequired: true},
		}); err != nil {
			return err
		}
		return sentinel
	})
	assert.True(t, errors.Is(err, sentinel))

	rows, err := s.ListApprovals(ctx, "req-1")
	require.NoError(t, err)
	assert.Empty(t, rows, "insert must be rolled back")
}

func TestWithTx_SeesOwnWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRequest(ctx, testRequest("req-1")))

	err := s.WithTx(ctx, func(store engine.RequestStore) error {
		if err := store.InsertApprovals(ctx, []*engine.PtoApproval{
			{ID: "a-1", RequestID: "req-1", ApproverID: "mgr-1", Status: engine.ApprovalPending, Level: 1, Sequence: 1, IsRequired: true},
		}); err != nil {
			return err
		}
		exists, err := store.ApprovalExists(ctx, "req-1", "mgr-1", true)
		if err != nil {
			return err
		}
		if !exists {
			return errors.New("transaction must observe its own insert")
		}
		return nil
	})
	require.NoError(t, err)

	rows, err := s.ListApprovals(ctx, "req-1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestBlackoutCatalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fixed := &engine.PtoBlackout{
		ID: "b-fixed", Name: "Freeze",
		StartDate: engine.NewDate(2026, 12, 20), EndDate: engine.NewDate(2026, 12, 31),
		Scope: engine.ScopeDepartments, DepartmentIDs: []string{"eng"},
		Restriction: engine.RestrictLimitRequests, MaxRequestsAllowed: 2,
		PtoTypeIDs: []engine.PtoTypeID{"vacation"},
		Active:     true,
	}
	recurring := &engine.PtoBlackout{
		ID: "b-rec", Name: "No Fridays", Recurring: true,
		Weekdays: []time.Weekday{time.Friday, time.Monday},
		Scope:    engine.ScopeCompany, Restriction: engine.RestrictFullBlock,
		AllowEmergencyOverride: true, Active: true,
	}
	inactive := &engine.PtoBlackout{
		ID: "b-off", Name: "Old", StartDate: engine.NewDate(2026, 12, 20), EndDate: engine.NewDate(2026, 12, 31),
		Scope: engine.ScopeCompany, Restriction: engine.RestrictFullBlock,
	}

	require.NoError(t, s.SaveBlackout(ctx, fixed))
	require.NoError(t, s.SaveBlackout(ctx, recurring))
	require.NoError(t, s.SaveBlackout(ctx, inactive))

	overlapping, err := s.ActiveOverlapping(ctx, engine.NewDate(2026, 12, 22), engine.NewDate(2026, 12, 23))
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	got := overlapping[0]
	assert.Equal(t, engine.BlackoutID("b-fixed"), got.ID)
	assert.Equal(t, []string{"eng"}, got.DepartmentIDs)
	assert.Equal(t, []engine.PtoTypeID{"vacation"}, got.PtoTypeIDs)
	assert.Equal(t, 2, got.MaxRequestsAllowed)

	rec, err := s.ActiveRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, rec, 1)
	assert.Equal(t, []time.Weekday{time.Friday, time.Monday}, rec[0].Weekdays)
	assert.True(t, rec[0].AllowEmergencyOverride)

	all, err := s.ListBlackouts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, engine.BlackoutID("b-fixed"), all[0].ID, "catalog order is insertion order")
}

func TestPtoTypeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePtoType(ctx, &engine.PtoType{
		ID: "sabbatical", Name: "Sabbatical",
		MultiLevelApproval: true,
		SpecificApprovers:  []engine.UserID{"appr-a", "appr-b"},
		UsesBalance:        true,
	}))

	got, err := s.GetPtoType(ctx, "sabbatical")
	require.NoError(t, err)
	assert.True(t, got.MultiLevelApproval)
	assert.Equal(t, []engine.UserID{"appr-a", "appr-b"}, got.SpecificApprovers)
	assert.True(t, got.UsesBalance)

	_, err = s.GetPtoType(ctx, "ghost")
	assert.True(t, errors.Is(err, engine.ErrTypeNotFound))
}

func TestDirectory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mgr := engine.UserID("mgr-1")
	require.NoError(t, s.SaveUser(ctx, &engine.User{ID: "mgr-1", Name: "Manager"}))
	require.NoError(t, s.SaveUser(ctx, &engine.User{ID: "emp-1", Name: "Alpha", ManagerID: &mgr, DepartmentIDs: []string{"eng"}}))
	require.NoError(t, s.SaveUser(ctx, &engine.User{ID: "emp-2", Name: "Beta", ManagerID: &mgr}))

	got, err := s.GetUser(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got.ManagerID)
	assert.Equal(t, mgr, *got.ManagerID)
	assert.Equal(t, []string{"eng"}, got.DepartmentIDs)

	reports, err := s.DirectReports(ctx, "mgr-1")
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	_, err = s.GetUser(ctx, "ghost")
	assert.True(t, errors.Is(err, engine.ErrUserNotFound))
}

func TestHolidays(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveHoliday(ctx, "h-1", engine.NewDate(2026, 12, 25), "Christmas"))

	yes, err := s.AnyHolidayBetween(ctx, engine.NewDate(2026, 12, 24), engine.NewDate(2026, 12, 26))
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := s.AnyHolidayBetween(ctx, engine.NewDate(2026, 11, 1), engine.NewDate(2026, 11, 30))
	require.NoError(t, err)
	assert.False(t, no)
}

func TestBalanceHolds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PlaceHold(ctx, "req-1", decimal.NewFromFloat(2.5)))

	amount, err := s.ReleaseHold(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromFloat(2.5)))

	// Releasing again is a zero-value no-op.
	amount, err = s.ReleaseHold(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

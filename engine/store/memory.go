// Package store provides in-memory implementations of the engine's
// persistence interfaces, for testing and dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/pto-engine/engine"
)

// =============================================================================
// MEMORY REQUEST STORE
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	requests  map[engine.RequestID]*engine.PtoRequest
	approvals map[engine.RequestID][]*engine.PtoApproval
}

func NewMemory() *Memory {
	return &Memory{
		requests:  make(map[engine.RequestID]*engine.PtoRequest),
		approvals: make(map[engine.RequestID][]*engine.PtoApproval),
	}
}

// SeedRequest inserts a request directly, for fixtures.
func (m *Memory) SeedRequest(req *engine.PtoRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = cloneRequest(req)
}

func (m *Memory) GetRequest(_ context.Context, id engine.RequestID) (*engine.PtoRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getRequestLocked(id)
}

func (m *Memory) getRequestLocked(id engine.RequestID) (*engine.PtoRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, engine.ErrRequestNotFound
	}
	return cloneRequest(req), nil
}

func (m *Memory) UpdateRequest(_ context.Context, req *engine.PtoRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateRequestLocked(req)
}

func (m *Memory) updateRequestLocked(req *engine.PtoRequest) error {
	if _, ok := m.requests[req.ID]; !ok {
		return engine.ErrRequestNotFound
	}
	m.requests[req.ID] = cloneRequest(req)
	return nil
}

func (m *Memory) ListPendingRequestsByUser(_ context.Context, userID engine.UserID) ([]*engine.PtoRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPendingByUserLocked(userID), nil
}

func (m *Memory) listPendingByUserLocked(userID engine.UserID) []*engine.PtoRequest {
	var out []*engine.PtoRequest
	for _, req := range m.requests {
		if req.UserID == userID && req.Status == engine.RequestPending {
			out = append(out, cloneRequest(req))
		}
	}
	sortRequests(out)
	return out
}

func (m *Memory) ListRequestsOverlapping(_ context.Context, start, end engine.Date, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	window := engine.DateRange{Start: start, End: end}
	var out []*engine.PtoRequest
	for _, req := range m.requests {
		if statusIn(req.Status, statuses) && req.Range().Overlaps(window) {
			out = append(out, cloneRequest(req))
		}
	}
	sortRequests(out)
	return out, nil
}

func (m *Memory) ListRequestsStartingOrEndingOn(_ context.Context, weekdays []time.Weekday, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		set[wd] = true
	}

	var out []*engine.PtoRequest
	for _, req := range m.requests {
		if statusIn(req.Status, statuses) && (set[req.StartDate.Weekday()] || set[req.EndDate.Weekday()]) {
			out = append(out, cloneRequest(req))
		}
	}
	sortRequests(out)
	return out, nil
}

func (m *Memory) InsertApprovals(_ context.Context, approvals []*engine.PtoApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertApprovalsLocked(approvals)
}

func (m *Memory) insertApprovalsLocked(approvals []*engine.PtoApproval) error {
	for _, a := range approvals {
		c := *a
		m.approvals[a.RequestID] = append(m.approvals[a.RequestID], &c)
	}
	return nil
}

func (m *Memory) ListApprovals(_ context.Context, requestID engine.RequestID) ([]*engine.PtoApproval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listApprovalsLocked(requestID), nil
}

func (m *Memory) listApprovalsLocked(requestID engine.RequestID) []*engine.PtoApproval {
	rows := m.approvals[requestID]
	out := make([]*engine.PtoApproval, len(rows))
	for i, a := range rows {
		c := *a
		out[i] = &c
	}
	sortApprovals(out)
	return out
}

func (m *Memory) ReassignPendingApprovals(_ context.Context, requestID engine.RequestID, from, to engine.UserID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reassignLocked(requestID, from, to), nil
}

func (m *Memory) reassignLocked(requestID engine.RequestID, from, to engine.UserID) int {
	n := 0
	for _, a := range m.approvals[requestID] {
		if a.ApproverID == from && a.Status == engine.ApprovalPending {
			a.ApproverID = to
			n++
		}
	}
	return n
}

func (m *Memory) ReassignAllPendingApprovals(_ context.Context, from, to engine.UserID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for requestID := range m.approvals {
		n += m.reassignLocked(requestID, from, to)
	}
	return n, nil
}

func (m *Memory) ApprovalExists(_ context.Context, requestID engine.RequestID, approver engine.UserID, pendingOnly bool) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.approvalExistsLocked(requestID, approver, pendingOnly), nil
}

func (m *Memory) approvalExistsLocked(requestID engine.RequestID, approver engine.UserID, pendingOnly bool) bool {
	for _, a := range m.approvals[requestID] {
		if a.ApproverID != approver {
			continue
		}
		if pendingOnly && a.Status != engine.ApprovalPending {
			continue
		}
		return true
	}
	return false
}

func (m *Memory) ResolveApproval(_ context.Context, id engine.ApprovalID, status engine.ApprovalStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked(id, status, at), nil
}

func (m *Memory) resolveLocked(id engine.ApprovalID, status engine.ApprovalStatus, at time.Time) bool {
	for _, rows := range m.approvals {
		for _, a := range rows {
			if a.ID == id && a.Status == engine.ApprovalPending {
				a.Status = status
				t := at
				a.RespondedAt = &t
				return true
			}
		}
	}
	return false
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with snapshot/rollback transactions.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(_ context.Context, fn func(engine.RequestStore) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(&memView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	requests  map[engine.RequestID]*engine.PtoRequest
	approvals map[engine.RequestID][]*engine.PtoApproval
}

func (tm *TxMemory) snapshot() memorySnapshot {
	reqs := make(map[engine.RequestID]*engine.PtoRequest, len(tm.requests))
	for k, v := range tm.requests {
		reqs[k] = cloneRequest(v)
	}
	apps := make(map[engine.RequestID][]*engine.PtoApproval, len(tm.approvals))
	for k, rows := range tm.approvals {
		cp := make([]*engine.PtoApproval, len(rows))
		for i, a := range rows {
			c := *a
			cp[i] = &c
		}
		apps[k] = cp
	}
	return memorySnapshot{requests: reqs, approvals: apps}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.requests = s.requests
	tm.approvals = s.approvals
}

// memView runs store operations against an already-locked Memory.
type memView struct {
	parent *Memory
}

func (v *memView) GetRequest(_ context.Context, id engine.RequestID) (*engine.PtoRequest, error) {
	return v.parent.getRequestLocked(id)
}

func (v *memView) UpdateRequest(_ context.Context, req *engine.PtoRequest) error {
	return v.parent.updateRequestLocked(req)
}

func (v *memView) ListPendingRequestsByUser(_ context.Context, userID engine.UserID) ([]*engine.PtoRequest, error) {
	return v.parent.listPendingByUserLocked(userID), nil
}

func (v *memView) ListRequestsOverlapping(ctx context.Context, start, end engine.Date, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	window := engine.DateRange{Start: start, End: end}
	var out []*engine.PtoRequest
	for _, req := range v.parent.requests {
		if statusIn(req.Status, statuses) && req.Range().Overlaps(window) {
			out = append(out, cloneRequest(req))
		}
	}
	sortRequests(out)
	return out, nil
}

func (v *memView) ListRequestsStartingOrEndingOn(ctx context.Context, weekdays []time.Weekday, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	set := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		set[wd] = true
	}
	var out []*engine.PtoRequest
	for _, req := range v.parent.requests {
		if statusIn(req.Status, statuses) && (set[req.StartDate.Weekday()] || set[req.EndDate.Weekday()]) {
			out = append(out, cloneRequest(req))
		}
	}
	sortRequests(out)
	return out, nil
}

func (v *memView) InsertApprovals(_ context.Context, approvals []*engine.PtoApproval) error {
	return v.parent.insertApprovalsLocked(approvals)
}

func (v *memView) ListApprovals(_ context.Context, requestID engine.RequestID) ([]*engine.PtoApproval, error) {
	return v.parent.listApprovalsLocked(requestID), nil
}

func (v *memView) ReassignPendingApprovals(_ context.Context, requestID engine.RequestID, from, to engine.UserID) (int, error) {
	return v.parent.reassignLocked(requestID, from, to), nil
}

func (v *memView) ReassignAllPendingApprovals(_ context.Context, from, to engine.UserID) (int, error) {
	n := 0
	for requestID := range v.parent.approvals {
		n += v.parent.reassignLocked(requestID, from, to)
	}
	return n, nil
}

func (v *memView) ApprovalExists(_ context.Context, requestID engine.RequestID, approver engine.UserID, pendingOnly bool) (bool, error) {
	return v.parent.approvalExistsLocked(requestID, approver, pendingOnly), nil
}

func (v *memView) ResolveApproval(_ context.Context, id engine.ApprovalID, status engine.ApprovalStatus, at time.Time) (bool, error) {
	return v.parent.resolveLocked(id, status, at), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func cloneRequest(req *engine.PtoRequest) *engine.PtoRequest {
	c := *req
	if req.DenialReason != nil {
		r := *req.DenialReason
		c.DenialReason = &r
	}
	if req.Verdict != nil {
		v := *req.Verdict
		v.Conflicts = append([]engine.Conflict(nil), req.Verdict.Conflicts...)
		v.Warnings = append([]engine.Warning(nil), req.Verdict.Warnings...)
		c.Verdict = &v
	}
	if req.Override.Approved != nil {
		a := *req.Override.Approved
		c.Override.Approved = &a
	}
	return &c
}

func statusIn(status engine.RequestStatus, statuses []engine.RequestStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Deterministic ordering keeps test assertions stable.
func sortRequests(reqs []*engine.PtoRequest) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].ID < reqs[j].ID })
}

func sortApprovals(rows []*engine.PtoApproval) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Sequence < rows[j].Sequence })
}

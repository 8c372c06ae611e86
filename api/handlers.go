/*
handlers.go - HTTP API handlers for the PTO approval engine

PURPOSE:
  Exposes the approval engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Requests:
    POST   /api/requests                    Submit a PTO request
    POST   /api/requests/validate           Dry-run blackout check
    GET    /api/requests/{id}               Get request with approvals
    GET    /api/requests/{id}/progress      Approval progress
    POST   /api/requests/{id}/decision      Approver decision
    POST   /api/requests/{id}/acknowledge   Acknowledge warnings
    POST   /api/requests/{id}/override          Request emergency override
    POST   /api/requests/{id}/override/decision Decide emergency override

  Hierarchy:
    POST   /api/hierarchy/manager-changed   Manager reassignment hook
    POST   /api/hierarchy/transfers         Blanket approval transfer

  Admin:
    POST   /api/users                       Upsert directory user
    GET    /api/users/{id}                  Get directory user
    POST   /api/pto-types                   Upsert PTO type
    POST   /api/blackouts                   Upsert blackout
    GET    /api/blackouts                   List blackouts
    POST   /api/holidays                    Register company holiday

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (service, evaluator, reconciler)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Blackout conflict on submission
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public;
  the surrounding system is expected to front this service.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/pto-engine/engine"
	"github.com/warp/pto-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *engine.Service
	Logger  *zap.Logger
}

// NewHandler wires the handler over the store and service.
func NewHandler(store *sqlite.Store, service *engine.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, Service: service, Logger: logger}
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest creates a PTO request, evaluates it against the blackout
// catalog, and builds its approval chain. A full-block conflict without
// an emergency override path denies the request immediately.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.UserID == "" || body.TypeID == "" {
		writeError(w, http.StatusBadRequest, "user_id and type_id are required", nil)
		return
	}

	start, err := engine.ParseDate(body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := engine.ParseDate(body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}
	window, err := engine.NewDateRange(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must not be after end_date", err)
		return
	}

	totalDays := decimal.NewFromInt(int64(len(window.Days())))
	if body.TotalDays != "" {
		totalDays, err = decimal.NewFromString(body.TotalDays)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid total_days", err)
			return
		}
	}

	now := time.Now().UTC()
	req := &engine.PtoRequest{
		ID:        engine.RequestID(uuid.NewString()),
		UserID:    engine.UserID(body.UserID),
		TypeID:    engine.PtoTypeID(body.TypeID),
		StartDate: start,
		EndDate:   end,
		TotalDays: totalDays,
		Status:    engine.RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Store.SaveRequest(ctx, req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save request", err)
		return
	}

	if body.HoldDays != nil {
		holdDays, err := decimal.NewFromString(*body.HoldDays)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hold_days", err)
			return
		}
		if err := h.Store.PlaceHold(ctx, req.ID, holdDays); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to place balance hold", err)
			return
		}
	}

	verdict, err := h.Service.ValidateAndStore(ctx, req, body.IsEmergency)
	if err != nil {
		writeDomainError(w, "Failed to validate request", err)
		return
	}

	if verdict.HasConflicts() {
		if err := h.Service.AutoRejectForBlackout(ctx, req); err != nil {
			writeDomainError(w, "Failed to reject conflicting request", err)
			return
		}
		writeJSON(w, http.StatusConflict, SubmitResponse{
			Request: toRequestDTO(req),
			Verdict: verdict,
		})
		return
	}

	if err := h.Service.CreateApprovalChain(ctx, req); err != nil {
		writeDomainError(w, "Failed to build approval chain", err)
		return
	}

	approvals, err := h.Store.ListApprovals(ctx, req.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load approvals", err)
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResponse{
		Request:   toRequestDTO(req),
		Verdict:   verdict,
		Approvals: toApprovalDTOs(approvals),
	})
}

// ValidateRequest runs a dry-run blackout check without persisting
// anything.
func (h *Handler) ValidateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ValidateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := engine.ParseDate(body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := engine.ParseDate(body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	user, err := h.Store.GetUser(ctx, engine.UserID(body.UserID))
	if err != nil {
		writeDomainError(w, "Failed to resolve user", err)
		return
	}

	verdict, err := h.Service.Evaluator.Validate(ctx, user, start, end, engine.PtoTypeID(body.TypeID), body.IsEmergency)
	if err != nil {
		writeDomainError(w, "Failed to validate request", err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// GetRequest returns a request with its approval chain.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := engine.RequestID(chi.URLParam(r, "id"))

	req, err := h.Store.GetRequest(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}
	approvals, err := h.Store.ListApprovals(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load approvals", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Request   RequestDTO    `json:"request"`
		Approvals []ApprovalDTO `json:"approvals"`
	}{toRequestDTO(req), toApprovalDTOs(approvals)})
}

// GetProgress returns the request's approval progress aggregate.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := engine.RequestID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetRequest(ctx, id); err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}
	approvals, err := h.Store.ListApprovals(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load approvals", err)
		return
	}

	progress := engine.ComputeProgress(id, approvals)
	writeJSON(w, http.StatusOK, ProgressDTO{
		RequestID:    string(id),
		CurrentLevel: progress.CurrentLevel,
		Approvals:    toApprovalDTOs(approvals),
	})
}

// DecideApproval records one approver's decision.
func (h *Handler) DecideApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := engine.RequestID(chi.URLParam(r, "id"))

	var body DecideApprovalDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "approver_id is required", nil)
		return
	}

	err := h.Service.DecideApproval(ctx, id, engine.UserID(body.ApproverID), body.Approved, body.Reason)
	if err != nil {
		writeDomainError(w, "Failed to record decision", err)
		return
	}

	req, err := h.Store.GetRequest(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to reload request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// AcknowledgeWarnings marks the stored warnings as seen.
func (h *Handler) AcknowledgeWarnings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := engine.RequestID(chi.URLParam(r, "id"))

	var body AcknowledgeDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, err := h.Store.GetRequest(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}

	acknowledged, err := h.Service.AcknowledgeWarnings(ctx, req, engine.UserID(body.UserID))
	if err != nil {
		writeDomainError(w, "Failed to acknowledge warnings", err)
		return
	}
	writeJSON(w, http.StatusOK, AcknowledgeResponse{Acknowledged: acknowledged})
}

// =============================================================================
// OVERRIDE HANDLERS
// =============================================================================

// RequestOverride flags a conflicting request as an emergency.
func (h *Handler) RequestOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := engine.RequestID(chi.URLParam(r, "id"))

	var body RequestOverrideDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, err := h.Store.GetRequest(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}

	if err := h.Service.RequestOverride(ctx, req, body.Reason); err != nil {
		writeDomainError(w, "Failed to request override", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// DecideOverride approves or denies a pending emergency override.
func (h *Handler) DecideOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := engine.RequestID(chi.URLParam(r, "id"))

	var body DecideOverrideDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, err := h.Store.GetRequest(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}

	decision, err := h.Service.DecideOverride(ctx, req, engine.UserID(body.ApproverID), body.Approved, body.Reason)
	if err != nil {
		writeDomainError(w, "Failed to decide override", err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// =============================================================================
// HIERARCHY HANDLERS
// =============================================================================

// ManagerChanged migrates pending approvals after a manager reassignment.
func (h *Handler) ManagerChanged(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ManagerChangedDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	user, err := h.Store.GetUser(ctx, engine.UserID(body.UserID))
	if err != nil {
		writeDomainError(w, "Failed to resolve user", err)
		return
	}

	var oldManagerID *engine.UserID
	if body.OldManagerID != nil {
		old := engine.UserID(*body.OldManagerID)
		oldManagerID = &old
	}

	n, err := h.Service.OnManagerChanged(ctx, user, oldManagerID, engine.UserID(body.NewManagerID))
	if err != nil {
		writeDomainError(w, "Failed to reconcile hierarchy", err)
		return
	}
	writeJSON(w, http.StatusOK, TransferResponse{Transferred: n})
}

// TransferApprovals blanket-reassigns pending approvals between users.
func (h *Handler) TransferApprovals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body TransferApprovalsDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.FromUserID == "" || body.ToUserID == "" {
		writeError(w, http.StatusBadRequest, "from_user_id and to_user_id are required", nil)
		return
	}

	n, err := h.Service.TransferAllPendingApprovals(ctx, engine.UserID(body.FromUserID), engine.UserID(body.ToUserID))
	if err != nil {
		writeDomainError(w, "Failed to transfer approvals", err)
		return
	}
	writeJSON(w, http.StatusOK, TransferResponse{Transferred: n})
}

// =============================================================================
// ADMIN HANDLERS - Directory, types, catalog
// =============================================================================

// UpsertUser creates or updates a directory user.
func (h *Handler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body UserDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}

	user := &engine.User{
		ID:            engine.UserID(body.ID),
		Name:          body.Name,
		PositionID:    body.PositionID,
		DepartmentIDs: body.DepartmentIDs,
	}
	if body.ManagerID != nil {
		m := engine.UserID(*body.ManagerID)
		user.ManagerID = &m
	}

	if err := h.Store.SaveUser(ctx, user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", err)
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

// GetUser returns a directory user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.Store.GetUser(ctx, engine.UserID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}

	dto := UserDTO{
		ID:            string(user.ID),
		Name:          user.Name,
		PositionID:    user.PositionID,
		DepartmentIDs: user.DepartmentIDs,
	}
	if user.ManagerID != nil {
		m := string(*user.ManagerID)
		dto.ManagerID = &m
	}
	writeJSON(w, http.StatusOK, dto)
}

// UpsertPtoType creates or updates a PTO type definition.
func (h *Handler) UpsertPtoType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body PtoTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.ID == "" || body.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	approvers := make([]engine.UserID, len(body.SpecificApprovers))
	for i, a := range body.SpecificApprovers {
		approvers[i] = engine.UserID(a)
	}

	pt := &engine.PtoType{
		ID:                       engine.PtoTypeID(body.ID),
		Name:                     body.Name,
		MultiLevelApproval:       body.MultiLevelApproval,
		DisableHierarchyApproval: body.DisableHierarchyApproval,
		SpecificApprovers:        approvers,
		UsesBalance:              body.UsesBalance,
	}
	if err := h.Store.SavePtoType(ctx, pt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save pto type", err)
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

// UpsertBlackout creates or updates a blackout definition.
func (h *Handler) UpsertBlackout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body BlackoutDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.ID == "" || body.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	b := &engine.PtoBlackout{
		ID:                     engine.BlackoutID(body.ID),
		Name:                   body.Name,
		Recurring:              body.Recurring,
		Scope:                  engine.BlackoutScope(body.Scope),
		PositionID:             body.PositionID,
		DepartmentIDs:          body.DepartmentIDs,
		Restriction:            engine.RestrictionType(body.Restriction),
		Strict:                 body.Strict,
		AllowEmergencyOverride: body.AllowEmergencyOverride,
		MaxRequestsAllowed:     body.MaxRequestsAllowed,
		IsHoliday:              body.IsHoliday,
		Active:                 body.Active,
	}
	for _, u := range body.UserIDs {
		b.UserIDs = append(b.UserIDs, engine.UserID(u))
	}
	for _, t := range body.PtoTypeIDs {
		b.PtoTypeIDs = append(b.PtoTypeIDs, engine.PtoTypeID(t))
	}
	for _, d := range body.Weekdays {
		b.Weekdays = append(b.Weekdays, time.Weekday(d))
	}

	if body.Recurring {
		if len(b.Weekdays) == 0 {
			writeError(w, http.StatusBadRequest, "recurring blackout requires weekdays", nil)
			return
		}
	} else {
		var err error
		if b.StartDate, err = engine.ParseDate(body.StartDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
			return
		}
		if b.EndDate, err = engine.ParseDate(body.EndDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
	}

	if err := h.Store.SaveBlackout(ctx, b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save blackout", err)
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

// ListBlackouts returns every blackout in catalog order.
func (h *Handler) ListBlackouts(w http.ResponseWriter, r *http.Request) {
	blackouts, err := h.Store.ListBlackouts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list blackouts", err)
		return
	}

	dtos := make([]BlackoutDTO, len(blackouts))
	for i, b := range blackouts {
		dtos[i] = toBlackoutDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday registers a company holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := engine.ParseDate(body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if body.ID == "" {
		body.ID = uuid.NewString()
	}

	if err := h.Store.SaveHoliday(ctx, body.ID, date, body.Name); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

// =============================================================================
// DTO MAPPING
// =============================================================================

func toRequestDTO(req *engine.PtoRequest) RequestDTO {
	dto := RequestDTO{
		ID:           string(req.ID),
		UserID:       string(req.UserID),
		TypeID:       string(req.TypeID),
		StartDate:    req.StartDate.String(),
		EndDate:      req.EndDate.String(),
		TotalDays:    req.TotalDays.String(),
		Status:       string(req.Status),
		DenialReason: req.DenialReason,
		Verdict:      req.Verdict,
		Override: OverrideDTO{
			Requested: req.Override.Requested,
			Approved:  req.Override.Approved,
			Reason:    req.Override.Reason,
			DecidedBy: string(req.Override.DecidedBy),
		},
		CreatedAt: req.CreatedAt.Format(time.RFC3339),
		UpdatedAt: req.UpdatedAt.Format(time.RFC3339),
	}
	if req.Override.DecidedAt != nil {
		at := req.Override.DecidedAt.Format(time.RFC3339)
		dto.Override.DecidedAt = &at
	}
	return dto
}

func toApprovalDTOs(approvals []*engine.PtoApproval) []ApprovalDTO {
	dtos := make([]ApprovalDTO, len(approvals))
	for i, a := range approvals {
		dtos[i] = ApprovalDTO{
			ID:         string(a.ID),
			RequestID:  string(a.RequestID),
			ApproverID: string(a.ApproverID),
			Status:     string(a.Status),
			Level:      a.Level,
			Sequence:   a.Sequence,
			IsRequired: a.IsRequired,
		}
		if a.RespondedAt != nil {
			at := a.RespondedAt.Format(time.RFC3339)
			dtos[i].RespondedAt = &at
		}
	}
	return dtos
}

func toBlackoutDTO(b *engine.PtoBlackout) BlackoutDTO {
	dto := BlackoutDTO{
		ID:                     string(b.ID),
		Name:                   b.Name,
		Recurring:              b.Recurring,
		Scope:                  string(b.Scope),
		PositionID:             b.PositionID,
		DepartmentIDs:          b.DepartmentIDs,
		Restriction:            string(b.Restriction),
		Strict:                 b.Strict,
		AllowEmergencyOverride: b.AllowEmergencyOverride,
		MaxRequestsAllowed:     b.MaxRequestsAllowed,
		IsHoliday:              b.IsHoliday,
		Active:                 b.Active,
	}
	if !b.Recurring {
		dto.StartDate = b.StartDate.String()
		dto.EndDate = b.EndDate.String()
	}
	for _, u := range b.UserIDs {
		dto.UserIDs = append(dto.UserIDs, string(u))
	}
	for _, t := range b.PtoTypeIDs {
		dto.PtoTypeIDs = append(dto.PtoTypeIDs, string(t))
	}
	for _, wd := range b.Weekdays {
		dto.Weekdays = append(dto.Weekdays, int(wd))
	}
	return dto
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

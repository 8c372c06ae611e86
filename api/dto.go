/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/pto-engine/engine"
)

// =============================================================================
// REQUESTS
// =============================================================================

// SubmitRequestDTO is the body for submitting a PTO request.
type SubmitRequestDTO struct {
	UserID      string  `json:"user_id"`
	TypeID      string  `json:"type_id"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	TotalDays   string  `json:"total_days,omitempty"`
	IsEmergency bool    `json:"is_emergency"`
	HoldDays    *string `json:"hold_days,omitempty"`
}

// RequestDTO represents a PTO request in API responses.
type RequestDTO struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"user_id"`
	TypeID       string                  `json:"type_id"`
	StartDate    string                  `json:"start_date"`
	EndDate      string                  `json:"end_date"`
	TotalDays    string                  `json:"total_days"`
	Status       string                  `json:"status"`
	DenialReason *string                 `json:"denial_reason,omitempty"`
	Verdict      *engine.VerdictSnapshot `json:"verdict,omitempty"`
	Override     OverrideDTO             `json:"override"`
	CreatedAt    string                  `json:"created_at"`
	UpdatedAt    string                  `json:"updated_at"`
}

// OverrideDTO is the emergency override state of a request.
type OverrideDTO struct {
	Requested bool    `json:"requested"`
	Approved  *bool   `json:"approved,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	DecidedBy string  `json:"decided_by,omitempty"`
	DecidedAt *string `json:"decided_at,omitempty"`
}

// SubmitResponse carries the stored request, its verdict, and the
// approval chain built at submission.
type SubmitResponse struct {
	Request   RequestDTO      `json:"request"`
	Verdict   *engine.Verdict `json:"verdict"`
	Approvals []ApprovalDTO   `json:"approvals"`
}

// ValidateRequestDTO is the body for a dry-run blackout check.
type ValidateRequestDTO struct {
	UserID      string `json:"user_id"`
	TypeID      string `json:"type_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsEmergency bool   `json:"is_emergency"`
}

// =============================================================================
// APPROVALS
// =============================================================================

// ApprovalDTO represents one approval chain row.
type ApprovalDTO struct {
	ID          string  `json:"id"`
	RequestID   string  `json:"request_id"`
	ApproverID  string  `json:"approver_id"`
	Status      string  `json:"status"`
	Level       int     `json:"level"`
	Sequence    int     `json:"sequence"`
	IsRequired  bool    `json:"is_required"`
	RespondedAt *string `json:"responded_at,omitempty"`
}

// DecideApprovalDTO is the body for an approver decision.
type DecideApprovalDTO struct {
	ApproverID string `json:"approver_id"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason,omitempty"`
}

// ProgressDTO summarizes a request's approval progress.
type ProgressDTO struct {
	RequestID    string        `json:"request_id"`
	CurrentLevel int           `json:"current_level"`
	Approvals    []ApprovalDTO `json:"approvals"`
}

// =============================================================================
// OVERRIDES / ACKNOWLEDGMENTS
// =============================================================================

// RequestOverrideDTO is the body for requesting an emergency override.
type RequestOverrideDTO struct {
	Reason string `json:"reason"`
}

// DecideOverrideDTO is the body for deciding an emergency override.
type DecideOverrideDTO struct {
	ApproverID string `json:"approver_id"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason,omitempty"`
}

// AcknowledgeDTO is the body for acknowledging stored warnings.
type AcknowledgeDTO struct {
	UserID string `json:"user_id"`
}

// AcknowledgeResponse reports whether anything was acknowledged.
type AcknowledgeResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

// =============================================================================
// HIERARCHY
// =============================================================================

// ManagerChangedDTO is the body for the manager-change hook.
type ManagerChangedDTO struct {
	UserID       string  `json:"user_id"`
	OldManagerID *string `json:"old_manager_id,omitempty"`
	NewManagerID string  `json:"new_manager_id"`
}

// TransferApprovalsDTO is the body for a blanket approval transfer.
type TransferApprovalsDTO struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
}

// TransferResponse reports how many approval rows moved.
type TransferResponse struct {
	Transferred int `json:"transferred"`
}

// =============================================================================
// DIRECTORY / CATALOG ADMIN
// =============================================================================

// UserDTO represents a directory user.
type UserDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ManagerID     *string  `json:"manager_id,omitempty"`
	PositionID    string   `json:"position_id,omitempty"`
	DepartmentIDs []string `json:"department_ids,omitempty"`
}

// PtoTypeDTO represents a PTO type definition.
type PtoTypeDTO struct {
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	MultiLevelApproval       bool     `json:"multi_level_approval"`
	DisableHierarchyApproval bool     `json:"disable_hierarchy_approval"`
	SpecificApprovers        []string `json:"specific_approvers,omitempty"`
	UsesBalance              bool     `json:"uses_balance"`
}

// BlackoutDTO represents a blackout definition.
type BlackoutDTO struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	StartDate              string   `json:"start_date,omitempty"`
	EndDate                string   `json:"end_date,omitempty"`
	Recurring              bool     `json:"recurring"`
	Weekdays               []int    `json:"weekdays,omitempty"`
	Scope                  string   `json:"scope"`
	PositionID             string   `json:"position_id,omitempty"`
	DepartmentIDs          []string `json:"department_ids,omitempty"`
	UserIDs                []string `json:"user_ids,omitempty"`
	Restriction            string   `json:"restriction"`
	Strict                 bool     `json:"strict"`
	AllowEmergencyOverride bool     `json:"allow_emergency_override"`
	MaxRequestsAllowed     int      `json:"max_requests_allowed,omitempty"`
	PtoTypeIDs             []string `json:"pto_type_ids,omitempty"`
	IsHoliday              bool     `json:"is_holiday"`
	Active                 bool     `json:"active"`
}

// CreateHolidayRequest is the body to register a company holiday.
type CreateHolidayRequest struct {
	ID   string `json:"id,omitempty"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

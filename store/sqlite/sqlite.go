/*
Package sqlite provides a SQLite-backed implementation of the engine's
storage interfaces.

PURPOSE:
  Implements TxRequestStore, BlackoutCatalog, TypeStore, OrgDirectory,
  HolidayCalendar, and BalanceHolds over SQLite. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:         Directory slice (manager link, position, departments)
  pto_types:     Approval configuration per type
  requests:      PTO requests with verdict snapshot and override state
  approvals:     Approval chain rows (the shared mutable resource)
  blackouts:     Blackout definitions; rowid preserves catalog order
  holidays:      Company holidays for the is_holiday waiver
  balance_holds: Pending-balance holds released on auto-reject

WRITE DISCIPLINE:
  Approval mutations are narrow UPDATE ... WHERE status = 'pending'
  statements, so an approver decision concurrent with a reconciliation
  pass is never clobbered.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

TRANSACTIONS:
  WithTx routes every store call through the open *sql.Tx, so existence
  checks inside a reconciliation transaction observe its own writes.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/pto-engine/engine"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store. Use ":memory:" for an in-memory
// database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		manager_id TEXT,
		position_id TEXT NOT NULL DEFAULT '',
		department_ids_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_users_manager ON users(manager_id);

	CREATE TABLE IF NOT EXISTS pto_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		multi_level_approval BOOLEAN NOT NULL DEFAULT FALSE,
		disable_hierarchy_approval BOOLEAN NOT NULL DEFAULT FALSE,
		specific_approvers_json TEXT NOT NULL DEFAULT '[]',
		uses_balance BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_days TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'pending',
		denial_reason TEXT,
		verdict_json TEXT,
		override_requested BOOLEAN NOT NULL DEFAULT FALSE,
		override_approved BOOLEAN,
		override_reason TEXT NOT NULL DEFAULT '',
		override_decided_by TEXT NOT NULL DEFAULT '',
		override_decided_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user_status
		ON requests(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_requests_dates
		ON requests(start_date, end_date);

	CREATE TABLE IF NOT EXISTS approvals (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		approver_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		level INTEGER NOT NULL,
		sequence INTEGER NOT NULL,
		is_required BOOLEAN NOT NULL DEFAULT TRUE,
		responded_at TEXT,
		UNIQUE(request_id, sequence),
		CHECK(level > 0),
		CHECK(sequence > 0)
	);

	CREATE INDEX IF NOT EXISTS idx_approvals_request
		ON approvals(request_id);
	CREATE INDEX IF NOT EXISTS idx_approvals_approver_status
		ON approvals(approver_id, status);

	CREATE TABLE IF NOT EXISTS blackouts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		weekdays_json TEXT NOT NULL DEFAULT '[]',
		scope TEXT NOT NULL DEFAULT 'company',
		position_id TEXT NOT NULL DEFAULT '',
		department_ids_json TEXT NOT NULL DEFAULT '[]',
		user_ids_json TEXT NOT NULL DEFAULT '[]',
		restriction TEXT NOT NULL DEFAULT 'full_block',
		is_strict BOOLEAN NOT NULL DEFAULT FALSE,
		allow_emergency_override BOOLEAN NOT NULL DEFAULT FALSE,
		max_requests_allowed INTEGER NOT NULL DEFAULT 0,
		pto_type_ids_json TEXT NOT NULL DEFAULT '[]',
		is_holiday BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_blackouts_active
		ON blackouts(active, recurring);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);

	CREATE TABLE IF NOT EXISTS balance_holds (
		request_id TEXT PRIMARY KEY,
		days TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// REQUESTS (engine.RequestStore interface)
// =============================================================================

const selectRequest = `
	SELECT id, user_id, type_id, start_date, end_date, total_days, status,
	       denial_reason, verdict_json,
	       override_requested, override_approved, override_reason,
	       override_decided_by, override_decided_at,
	       created_at, updated_at
	FROM requests`

func (s *Store) GetRequest(ctx context.Context, id engine.RequestID) (*engine.PtoRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, db dbtx, id engine.RequestID) (*engine.PtoRequest, error) {
	req, err := scanRequest(db.QueryRowContext(ctx, selectRequest+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, engine.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return req, nil
}

// SaveRequest inserts or replaces a request row.
func (s *Store) SaveRequest(ctx context.Context, req *engine.PtoRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	verdictJSON, err := marshalVerdict(req.Verdict)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO requests
		(id, user_id, type_id, start_date, end_date, total_days, status,
		 denial_reason, verdict_json,
		 override_requested, override_approved, override_reason,
		 override_decided_by, override_decided_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			denial_reason = excluded.denial_reason,
			verdict_json = excluded.verdict_json,
			override_requested = excluded.override_requested,
			override_approved = excluded.override_approved,
			override_reason = excluded.override_reason,
			override_decided_by = excluded.override_decided_by,
			override_decided_at = excluded.override_decided_at,
			updated_at = excluded.updated_at
	`,
		req.ID, req.UserID, req.TypeID,
		req.StartDate.String(), req.EndDate.String(),
		req.TotalDays.String(), req.Status,
		nullString(stringOrEmpty(req.DenialReason)), verdictJSON,
		req.Override.Requested, nullBool(req.Override.Approved),
		req.Override.Reason, req.Override.DecidedBy,
		nullTime(req.Override.DecidedAt),
		req.CreatedAt.UTC().Format(time.RFC3339),
		req.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func (s *Store) UpdateRequest(ctx context.Context, req *engine.PtoRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateRequest(ctx, s.db, req)
}

func updateRequest(ctx context.Context, db dbtx, req *engine.PtoRequest) error {
	verdictJSON, err := marshalVerdict(req.Verdict)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE requests SET
			status = ?,
			denial_reason = ?,
			verdict_json = ?,
			override_requested = ?,
			override_approved = ?,
			override_reason = ?,
			override_decided_by = ?,
			override_decided_at = ?,
			updated_at = ?
		WHERE id = ?
	`,
		req.Status, nullString(stringOrEmpty(req.DenialReason)), verdictJSON,
		req.Override.Requested, nullBool(req.Override.Approved),
		req.Override.Reason, req.Override.DecidedBy,
		nullTime(req.Override.DecidedAt),
		req.UpdatedAt.UTC().Format(time.RFC3339),
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return engine.ErrRequestNotFound
	}
	return nil
}

func (s *Store) ListPendingRequestsByUser(ctx context.Context, userID engine.UserID) ([]*engine.PtoRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPendingByUser(ctx, s.db, userID)
}

func listPendingByUser(ctx context.Context, db dbtx, userID engine.UserID) ([]*engine.PtoRequest, error) {
	rows, err := db.QueryContext(ctx,
		selectRequest+" WHERE user_id = ? AND status = 'pending' ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *Store) ListRequestsOverlapping(ctx context.Context, start, end engine.Date, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listOverlapping(ctx, s.db, start, end, statuses)
}

func listOverlapping(ctx context.Context, db dbtx, start, end engine.Date, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	placeholders, args := statusArgs(statuses)
	args = append(args, end.String(), start.String())

	rows, err := db.QueryContext(ctx,
		selectRequest+` WHERE status IN (`+placeholders+`)
		  AND start_date <= ? AND end_date >= ?
		ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *Store) ListRequestsStartingOrEndingOn(ctx context.Context, weekdays []time.Weekday, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listByWeekday(ctx, s.db, weekdays, statuses)
}

func listByWeekday(ctx context.Context, db dbtx, weekdays []time.Weekday, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	if len(weekdays) == 0 {
		return nil, nil
	}

	statusPH, args := statusArgs(statuses)
	// strftime('%w') yields 0=Sunday..6=Saturday, matching time.Weekday.
	dayPH := strings.TrimSuffix(strings.Repeat("?,", len(weekdays)), ",")
	for i := 0; i < 2; i++ {
		for _, wd := range weekdays {
			args = append(args, fmt.Sprintf("%d", int(wd)))
		}
	}

	rows, err := db.QueryContext(ctx,
		selectRequest+` WHERE status IN (`+statusPH+`)
		  AND (strftime('%w', start_date) IN (`+dayPH+`)
		    OR strftime('%w', end_date) IN (`+dayPH+`))
		ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekday requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func statusArgs(statuses []engine.RequestStatus) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	return placeholders, args
}

func collectRequests(rows *sql.Rows) ([]*engine.PtoRequest, error) {
	var out []*engine.PtoRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*engine.PtoRequest, error) {
	var (
		req          engine.PtoRequest
		startDate    string
		endDate      string
		totalDays    string
		denialReason sql.NullString
		verdictJSON  sql.NullString
		overrideOK   sql.NullBool
		decidedAt    sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(
		&req.ID, &req.UserID, &req.TypeID, &startDate, &endDate, &totalDays,
		&req.Status, &denialReason, &verdictJSON,
		&req.Override.Requested, &overrideOK, &req.Override.Reason,
		&req.Override.DecidedBy, &decidedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.StartDate, _ = engine.ParseDate(startDate)
	req.EndDate, _ = engine.ParseDate(endDate)
	req.TotalDays, _ = decimal.NewFromString(totalDays)
	if denialReason.Valid {
		r := denialReason.String
		req.DenialReason = &r
	}
	if verdictJSON.Valid && verdictJSON.String != "" {
		var snapshot engine.VerdictSnapshot
		if err := json.Unmarshal([]byte(verdictJSON.String), &snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode verdict snapshot: %w", err)
		}
		req.Verdict = &snapshot
	}
	if overrideOK.Valid {
		b := overrideOK.Bool
		req.Override.Approved = &b
	}
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		req.Override.DecidedAt = &t
	}
	req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	req.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &req, nil
}

// =============================================================================
// APPROVALS
// =============================================================================

func (s *Store) InsertApprovals(ctx context.Context, approvals []*engine.PtoApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// All-or-nothing batch.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertApprovals(ctx, tx, approvals); err != nil {
		return err
	}
	return tx.Commit()
}

func insertApprovals(ctx context.Context, db dbtx, approvals []*engine.PtoApproval) error {
	for _, a := range approvals {
		_, err := db.ExecContext(ctx, `
			INSERT INTO approvals
			(id, request_id, approver_id, status, level, sequence, is_required, responded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, a.ID, a.RequestID, a.ApproverID, a.Status, a.Level, a.Sequence, a.IsRequired, nullTime(a.RespondedAt))
		if err != nil {
			return fmt.Errorf("failed to insert approval: %w", err)
		}
	}
	return nil
}

func (s *Store) ListApprovals(ctx context.Context, requestID engine.RequestID) ([]*engine.PtoApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listApprovals(ctx, s.db, requestID)
}

func listApprovals(ctx context.Context, db dbtx, requestID engine.RequestID) ([]*engine.PtoApproval, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, request_id, approver_id, status, level, sequence, is_required, responded_at
		FROM approvals
		WHERE request_id = ?
		ORDER BY sequence ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	var out []*engine.PtoApproval
	for rows.Next() {
		var a engine.PtoApproval
		var respondedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.RequestID, &a.ApproverID, &a.Status, &a.Level, &a.Sequence, &a.IsRequired, &respondedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		if respondedAt.Valid {
			t, _ := time.Parse(time.RFC3339, respondedAt.String)
			a.RespondedAt = &t
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *Store) ReassignPendingApprovals(ctx context.Context, requestID engine.RequestID, from, to engine.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reassignPending(ctx, s.db, requestID, from, to)
}

func reassignPending(ctx context.Context, db dbtx, requestID engine.RequestID, from, to engine.UserID) (int, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE approvals SET approver_id = ?
		WHERE request_id = ? AND approver_id = ? AND status = 'pending'
	`, to, requestID, from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign approvals: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) ReassignAllPendingApprovals(ctx context.Context, from, to engine.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reassignAllPending(ctx, s.db, from, to)
}

func reassignAllPending(ctx context.Context, db dbtx, from, to engine.UserID) (int, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE approvals SET approver_id = ?
		WHERE approver_id = ? AND status = 'pending'
	`, to, from)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign approvals: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) ApprovalExists(ctx context.Context, requestID engine.RequestID, approver engine.UserID, pendingOnly bool) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return approvalExists(ctx, s.db, requestID, approver, pendingOnly)
}

func approvalExists(ctx context.Context, db dbtx, requestID engine.RequestID, approver engine.UserID, pendingOnly bool) (bool, error) {
	query := "SELECT COUNT(*) FROM approvals WHERE request_id = ? AND approver_id = ?"
	if pendingOnly {
		query += " AND status = 'pending'"
	}
	var count int
	if err := db.QueryRowContext(ctx, query, requestID, approver).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check approval existence: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ResolveApproval(ctx context.Context, id engine.ApprovalID, status engine.ApprovalStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return resolveApproval(ctx, s.db, id, status, at)
}

func resolveApproval(ctx context.Context, db dbtx, id engine.ApprovalID, status engine.ApprovalStatus, at time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE approvals SET status = ?, responded_at = ?
		WHERE id = ? AND status = 'pending'
	`, status, at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return false, fmt.Errorf("failed to resolve approval: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// =============================================================================
// TRANSACTIONS (engine.TxRequestStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. Every store call made
// through fn's argument runs on the open *sql.Tx and observes the
// transaction's own writes.
func (s *Store) WithTx(ctx context.Context, fn func(engine.RequestStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetRequest(ctx context.Context, id engine.RequestID) (*engine.PtoRequest, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) UpdateRequest(ctx context.Context, req *engine.PtoRequest) error {
	return updateRequest(ctx, ts.tx, req)
}

func (ts *txStore) ListPendingRequestsByUser(ctx context.Context, userID engine.UserID) ([]*engine.PtoRequest, error) {
	return listPendingByUser(ctx, ts.tx, userID)
}

func (ts *txStore) ListRequestsOverlapping(ctx context.Context, start, end engine.Date, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	return listOverlapping(ctx, ts.tx, start, end, statuses)
}

func (ts *txStore) ListRequestsStartingOrEndingOn(ctx context.Context, weekdays []time.Weekday, statuses []engine.RequestStatus) ([]*engine.PtoRequest, error) {
	return listByWeekday(ctx, ts.tx, weekdays, statuses)
}

func (ts *txStore) InsertApprovals(ctx context.Context, approvals []*engine.PtoApproval) error {
	return insertApprovals(ctx, ts.tx, approvals)
}

func (ts *txStore) ListApprovals(ctx context.Context, requestID engine.RequestID) ([]*engine.PtoApproval, error) {
	return listApprovals(ctx, ts.tx, requestID)
}

func (ts *txStore) ReassignPendingApprovals(ctx context.Context, requestID engine.RequestID, from, to engine.UserID) (int, error) {
	return reassignPending(ctx, ts.tx, requestID, from, to)
}

func (ts *txStore) ReassignAllPendingApprovals(ctx context.Context, from, to engine.UserID) (int, error) {
	return reassignAllPending(ctx, ts.tx, from, to)
}

func (ts *txStore) ApprovalExists(ctx context.Context, requestID engine.RequestID, approver engine.UserID, pendingOnly bool) (bool, error) {
	return approvalExists(ctx, ts.tx, requestID, approver, pendingOnly)
}

func (ts *txStore) ResolveApproval(ctx context.Context, id engine.ApprovalID, status engine.ApprovalStatus, at time.Time) (bool, error) {
	return resolveApproval(ctx, ts.tx, id, status, at)
}

// =============================================================================
// BLACKOUTS (engine.BlackoutCatalog interface)
// =============================================================================

const selectBlackout = `
	SELECT id, name, start_date, end_date, recurring, weekdays_json,
	       scope, position_id, department_ids_json, user_ids_json,
	       restriction, is_strict, allow_emergency_override,
	       max_requests_allowed, pto_type_ids_json, is_holiday, active
	FROM blackouts`

// SaveBlackout inserts or replaces a blackout definition. Catalog order
// is insertion order (rowid).
func (s *Store) SaveBlackout(ctx context.Context, b *engine.PtoBlackout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	weekdaysJSON, _ := json.Marshal(weekdayInts(b.Weekdays))
	deptJSON, _ := json.Marshal(b.DepartmentIDs)
	userJSON, _ := json.Marshal(b.UserIDs)
	typeJSON, _ := json.Marshal(b.PtoTypeIDs)

	startDate, endDate := "", ""
	if !b.Recurring {
		startDate, endDate = b.StartDate.String(), b.EndDate.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blackouts
		(id, name, start_date, end_date, recurring, weekdays_json,
		 scope, position_id, department_ids_json, user_ids_json,
		 restriction, is_strict, allow_emergency_override,
		 max_requests_allowed, pto_type_ids_json, is_holiday, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			recurring = excluded.recurring,
			weekdays_json = excluded.weekdays_json,
			scope = excluded.scope,
			position_id = excluded.position_id,
			department_ids_json = excluded.department_ids_json,
			user_ids_json = excluded.user_ids_json,
			restriction = excluded.restriction,
			is_strict = excluded.is_strict,
			allow_emergency_override = excluded.allow_emergency_override,
			max_requests_allowed = excluded.max_requests_allowed,
			pto_type_ids_json = excluded.pto_type_ids_json,
			is_holiday = excluded.is_holiday,
			active = excluded.active
	`,
		b.ID, b.Name, startDate, endDate, b.Recurring, string(weekdaysJSON),
		b.Scope, b.PositionID, string(deptJSON), string(userJSON),
		b.Restriction, b.Strict, b.AllowEmergencyOverride,
		b.MaxRequestsAllowed, string(typeJSON), b.IsHoliday, b.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save blackout: %w", err)
	}
	return nil
}

func (s *Store) ActiveOverlapping(ctx context.Context, start, end engine.Date) ([]*engine.PtoBlackout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		selectBlackout+` WHERE active AND NOT recurring
		  AND start_date <= ? AND end_date >= ?
		ORDER BY rowid`, end.String(), start.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query blackouts: %w", err)
	}
	defer rows.Close()
	return collectBlackouts(rows)
}

func (s *Store) ActiveRecurring(ctx context.Context) ([]*engine.PtoBlackout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		selectBlackout+" WHERE active AND recurring ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query blackouts: %w", err)
	}
	defer rows.Close()
	return collectBlackouts(rows)
}

// ListBlackouts returns every blackout in catalog order.
func (s *Store) ListBlackouts(ctx context.Context) ([]*engine.PtoBlackout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectBlackout+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query blackouts: %w", err)
	}
	defer rows.Close()
	return collectBlackouts(rows)
}

func collectBlackouts(rows *sql.Rows) ([]*engine.PtoBlackout, error) {
	var out []*engine.PtoBlackout
	for rows.Next() {
		var (
			b            engine.PtoBlackout
			startDate    string
			endDate      string
			weekdaysJSON string
			deptJSON     string
			userJSON     string
			typeJSON     string
		)
		err := rows.Scan(&b.ID, &b.Name, &startDate, &endDate, &b.Recurring, &weekdaysJSON,
			&b.Scope, &b.PositionID, &deptJSON, &userJSON,
			&b.Restriction, &b.Strict, &b.AllowEmergencyOverride,
			&b.MaxRequestsAllowed, &typeJSON, &b.IsHoliday, &b.Active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blackout: %w", err)
		}

		if startDate != "" {
			b.StartDate, _ = engine.ParseDate(startDate)
		}
		if endDate != "" {
			b.EndDate, _ = engine.ParseDate(endDate)
		}
		var days []int
		json.Unmarshal([]byte(weekdaysJSON), &days)
		for _, d := range days {
			b.Weekdays = append(b.Weekdays, time.Weekday(d))
		}
		json.Unmarshal([]byte(deptJSON), &b.DepartmentIDs)
		json.Unmarshal([]byte(userJSON), &b.UserIDs)
		json.Unmarshal([]byte(typeJSON), &b.PtoTypeIDs)
		out = append(out, &b)
	}
	return out, rows.Err()
}

// =============================================================================
// PTO TYPES (engine.TypeStore interface)
// =============================================================================

func (s *Store) SavePtoType(ctx context.Context, pt *engine.PtoType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	approversJSON, _ := json.Marshal(pt.SpecificApprovers)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pto_types
		(id, name, multi_level_approval, disable_hierarchy_approval, specific_approvers_json, uses_balance)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			multi_level_approval = excluded.multi_level_approval,
			disable_hierarchy_approval = excluded.disable_hierarchy_approval,
			specific_approvers_json = excluded.specific_approvers_json,
			uses_balance = excluded.uses_balance
	`, pt.ID, pt.Name, pt.MultiLevelApproval, pt.DisableHierarchyApproval, string(approversJSON), pt.UsesBalance)
	if err != nil {
		return fmt.Errorf("failed to save pto type: %w", err)
	}
	return nil
}

func (s *Store) GetPtoType(ctx context.Context, id engine.PtoTypeID) (*engine.PtoType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pt engine.PtoType
	var approversJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, multi_level_approval, disable_hierarchy_approval, specific_approvers_json, uses_balance
		FROM pto_types WHERE id = ?
	`, id).Scan(&pt.ID, &pt.Name, &pt.MultiLevelApproval, &pt.DisableHierarchyApproval, &approversJSON, &pt.UsesBalance)
	if err == sql.ErrNoRows {
		return nil, engine.ErrTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pto type: %w", err)
	}
	json.Unmarshal([]byte(approversJSON), &pt.SpecificApprovers)
	return &pt, nil
}

// =============================================================================
// USERS (engine.OrgDirectory interface)
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u *engine.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deptJSON, _ := json.Marshal(u.DepartmentIDs)
	var managerID any
	if u.ManagerID != nil {
		managerID = string(*u.ManagerID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, manager_id, position_id, department_ids_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			manager_id = excluded.manager_id,
			position_id = excluded.position_id,
			department_ids_json = excluded.department_ids_json
	`, u.ID, u.Name, managerID, u.PositionID, string(deptJSON))
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id engine.UserID) (*engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u engine.User
	var managerID sql.NullString
	var deptJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, manager_id, position_id, department_ids_json
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &managerID, &u.PositionID, &deptJSON)
	if err == sql.ErrNoRows {
		return nil, engine.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if managerID.Valid {
		m := engine.UserID(managerID.String)
		u.ManagerID = &m
	}
	json.Unmarshal([]byte(deptJSON), &u.DepartmentIDs)
	return &u, nil
}

func (s *Store) DirectReports(ctx context.Context, managerID engine.UserID) ([]*engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, manager_id, position_id, department_ids_json
		FROM users WHERE manager_id = ? ORDER BY id
	`, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query direct reports: %w", err)
	}
	defer rows.Close()

	var out []*engine.User
	for rows.Next() {
		var u engine.User
		var mgr sql.NullString
		var deptJSON string
		if err := rows.Scan(&u.ID, &u.Name, &mgr, &u.PositionID, &deptJSON); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if mgr.Valid {
			m := engine.UserID(mgr.String)
			u.ManagerID = &m
		}
		json.Unmarshal([]byte(deptJSON), &u.DepartmentIDs)
		out = append(out, &u)
	}
	return out, rows.Err()
}

// =============================================================================
// HOLIDAYS (engine.HolidayCalendar interface)
// =============================================================================

func (s *Store) SaveHoliday(ctx context.Context, id string, date engine.Date, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET date = excluded.date, name = excluded.name
	`, id, date.String(), name)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) AnyHolidayBetween(ctx context.Context, start, end engine.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM holidays WHERE date >= ? AND date <= ?",
		start.String(), end.String()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query holidays: %w", err)
	}
	return count > 0, nil
}

// =============================================================================
// BALANCE HOLDS (engine.BalanceHolds interface)
// =============================================================================

func (s *Store) PlaceHold(ctx context.Context, requestID engine.RequestID, days decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balance_holds (request_id, days) VALUES (?, ?)
		ON CONFLICT(request_id) DO UPDATE SET days = excluded.days
	`, requestID, days.String())
	if err != nil {
		return fmt.Errorf("failed to place hold: %w", err)
	}
	return nil
}

func (s *Store) ReleaseHold(ctx context.Context, requestID engine.RequestID) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var days string
	err := s.db.QueryRowContext(ctx,
		"SELECT days FROM balance_holds WHERE request_id = ?", requestID).Scan(&days)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load hold: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM balance_holds WHERE request_id = ?", requestID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to release hold: %w", err)
	}

	amount, err := decimal.NewFromString(days)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse hold amount: %w", err)
	}
	return amount, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func marshalVerdict(v *engine.VerdictSnapshot) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode verdict snapshot: %w", err)
	}
	return string(data), nil
}

func weekdayInts(weekdays []time.Weekday) []int {
	out := make([]int, len(weekdays))
	for i, wd := range weekdays {
		out[i] = int(wd)
	}
	return out
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

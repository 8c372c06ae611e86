package store

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/pto-engine/engine"
)

// =============================================================================
// MEMORY DIRECTORY
// =============================================================================

// Directory is an in-memory org directory. Direct reports are derived
// from each user's ManagerID.
type Directory struct {
	mu    sync.RWMutex
	users map[engine.UserID]*engine.User
}

func NewDirectory() *Directory {
	return &Directory{users: make(map[engine.UserID]*engine.User)}
}

func (d *Directory) AddUser(u *engine.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := *u
	if u.ManagerID != nil {
		m := *u.ManagerID
		c.ManagerID = &m
	}
	d.users[u.ID] = &c
}

func (d *Directory) GetUser(_ context.Context, id engine.UserID) (*engine.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, engine.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (d *Directory) DirectReports(_ context.Context, managerID engine.UserID) ([]*engine.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*engine.User
	for _, u := range d.users {
		if u.ManagerID != nil && *u.ManagerID == managerID {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

// =============================================================================
// MEMORY BLACKOUT CATALOG
// =============================================================================

// Catalog is an in-memory blackout catalog. Queries return blackouts in
// insertion order, matching the catalog-order guarantee.
type Catalog struct {
	mu        sync.RWMutex
	blackouts []*engine.PtoBlackout
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

func (c *Catalog) AddBlackout(b *engine.PtoBlackout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *b
	c.blackouts = append(c.blackouts, &cp)
}

func (c *Catalog) ActiveOverlapping(_ context.Context, start, end engine.Date) ([]*engine.PtoBlackout, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	window := engine.DateRange{Start: start, End: end}
	var out []*engine.PtoBlackout
	for _, b := range c.blackouts {
		if b.Active && !b.Recurring && b.Range().Overlaps(window) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (c *Catalog) ActiveRecurring(_ context.Context) ([]*engine.PtoBlackout, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*engine.PtoBlackout
	for _, b := range c.blackouts {
		if b.Active && b.Recurring {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// =============================================================================
// MEMORY TYPE STORE
// =============================================================================

type Types struct {
	mu    sync.RWMutex
	types map[engine.PtoTypeID]*engine.PtoType
}

func NewTypes() *Types {
	return &Types{types: make(map[engine.PtoTypeID]*engine.PtoType)}
}

func (t *Types) AddType(pt *engine.PtoType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := *pt
	c.SpecificApprovers = append([]engine.UserID(nil), pt.SpecificApprovers...)
	t.types[pt.ID] = &c
}

func (t *Types) GetPtoType(_ context.Context, id engine.PtoTypeID) (*engine.PtoType, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pt, ok := t.types[id]
	if !ok {
		return nil, engine.ErrTypeNotFound
	}
	c := *pt
	return &c, nil
}

// =============================================================================
// MEMORY HOLIDAY CALENDAR
// =============================================================================

type Holidays struct {
	mu   sync.RWMutex
	days []engine.Date
}

func NewHolidays(days ...engine.Date) *Holidays {
	return &Holidays{days: days}
}

func (h *Holidays) AddHoliday(d engine.Date) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.days = append(h.days, d)
}

func (h *Holidays) AnyHolidayBetween(_ context.Context, start, end engine.Date) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	window := engine.DateRange{Start: start, End: end}
	for _, d := range h.days {
		if window.Contains(d) {
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// MEMORY BALANCE HOLDS
// =============================================================================

type Holds struct {
	mu    sync.Mutex
	holds map[engine.RequestID]decimal.Decimal
}

func NewHolds() *Holds {
	return &Holds{holds: make(map[engine.RequestID]decimal.Decimal)}
}

func (h *Holds) PlaceHold(requestID engine.RequestID, days decimal.Decimal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.holds[requestID] = days
}

func (h *Holds) ReleaseHold(_ context.Context, requestID engine.RequestID) (decimal.Decimal, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	amount, ok := h.holds[requestID]
	if !ok {
		return decimal.Zero, nil
	}
	delete(h.holds, requestID)
	return amount, nil
}

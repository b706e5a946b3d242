// Package store holds the application state in memory and persists it as a
// JSON snapshot through a BlobStore. All mutations go through the Store so
// that referential integrity and period uniqueness hold at every step.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"rozliczenia/internal/core"
	"rozliczenia/internal/storage"
)

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrDocumentNotFound   = errors.New("monthly document not found")

	// ErrNoValidItems is returned when a settlement submission has no row
	// that both references an existing order and has hours above zero.
	ErrNoValidItems = errors.New("settlement has no valid items")
)

// DuplicatePeriodError reports an attempt to create a second settlement for
// a (year, month) period.
type DuplicatePeriodError struct {
	Year  int
	Month int
}

func (e *DuplicatePeriodError) Error() string {
	return fmt.Sprintf("settlement for period %s already exists", core.PeriodID(e.Year, e.Month))
}

// Notifier receives change events after successful mutations. Implementations
// must tolerate being called concurrently.
type Notifier interface {
	NotifyChange(ctx context.Context, entity, action, id string, year, month int)
}

// Store is the single stateful component of the application. Reads return
// copies; writers mutate under the lock and persist best-effort.
type Store struct {
	mu       sync.RWMutex
	snap     core.Snapshot
	blobs    storage.BlobStore
	notifier Notifier
	logger   *slog.Logger
}

// New creates a Store backed by blobs. notifier may be nil, in which case
// change events are silently skipped.
func New(blobs storage.BlobStore, notifier Notifier, logger *slog.Logger) *Store {
	return &Store{
		blobs:    blobs,
		notifier: notifier,
		logger:   logger,
	}
}

// Open loads the persisted snapshot, if any. A missing snapshot leaves the
// store empty.
func (s *Store) Open(ctx context.Context) error {
	data, ok, err := s.blobs.Load(ctx, storage.SnapshotKey)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return nil
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.snap)
}

// persist writes the snapshot. Failures are logged, not returned: the
// in-memory state keeps serving the session and a later mutation retries.
func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.snap)
	if err != nil {
		s.logger.Error("encode snapshot", "error", err)
		return
	}
	if err := s.blobs.Save(ctx, storage.SnapshotKey, data); err != nil {
		s.logger.Error("persist snapshot", "error", err)
	}
}

func (s *Store) notify(ctx context.Context, entity, action, id string, year, month int) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyChange(ctx, entity, action, id, year, month)
}

// AddClient validates and stores a new client, assigning an id when empty.
func (s *Store) AddClient(ctx context.Context, c core.Client) (core.Client, error) {
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.snap.Clients = append(s.snap.Clients, cloneClient(c))
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "client", "created", c.ID, 0, 0)
	return c, nil
}

func (s *Store) UpdateClient(ctx context.Context, c core.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	idx := -1
	for i := range s.snap.Clients {
		if s.snap.Clients[i].ID == c.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrClientNotFound
	}
	s.snap.Clients[idx] = cloneClient(c)
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "client", "updated", c.ID, 0, 0)
	return nil
}

// DeleteClient removes a client and cascades: the client's orders go too,
// settlement items referencing those orders are dropped, and settlements
// left without any item are removed entirely.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()

	found := false
	clients := s.snap.Clients[:0]
	for _, c := range s.snap.Clients {
		if c.ID == id {
			found = true
			continue
		}
		clients = append(clients, c)
	}
	if !found {
		s.mu.Unlock()
		return ErrClientNotFound
	}

	removed := make(map[string]struct{})
	orders := s.snap.Orders[:0]
	for _, o := range s.snap.Orders {
		if o.ClientID == id {
			removed[o.ID] = struct{}{}
			continue
		}
		orders = append(orders, o)
	}

	next := s.snap
	next.Clients = clients
	next.Orders = orders
	next.Settlements = dropOrderItems(s.snap.Settlements, removed)
	s.snap = next
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "client", "deleted", id, 0, 0)
	return nil
}

// AddOrder validates and stores a new order. The referenced client must exist.
func (s *Store) AddOrder(ctx context.Context, o core.Order) (core.Order, error) {
	if err := o.Validate(); err != nil {
		return core.Order{}, err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	s.mu.Lock()
	if _, ok := s.snap.ClientByID(o.ClientID); !ok {
		s.mu.Unlock()
		return core.Order{}, ErrClientNotFound
	}
	s.snap.Orders = append(s.snap.Orders, cloneOrder(o))
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "order", "created", o.ID, 0, 0)
	return o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o core.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.snap.ClientByID(o.ClientID); !ok {
		s.mu.Unlock()
		return ErrClientNotFound
	}
	idx := -1
	for i := range s.snap.Orders {
		if s.snap.Orders[i].ID == o.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrOrderNotFound
	}
	s.snap.Orders[idx] = cloneOrder(o)
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "order", "updated", o.ID, 0, 0)
	return nil
}

// DeleteOrder removes an order and cascades to settlement items referencing
// it; settlements left empty are removed.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	s.mu.Lock()

	found := false
	orders := s.snap.Orders[:0]
	for _, o := range s.snap.Orders {
		if o.ID == id {
			found = true
			continue
		}
		orders = append(orders, o)
	}
	if !found {
		s.mu.Unlock()
		return ErrOrderNotFound
	}

	next := s.snap
	next.Orders = orders
	next.Settlements = dropOrderItems(s.snap.Settlements, map[string]struct{}{id: {}})
	s.snap = next
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "order", "deleted", id, 0, 0)
	return nil
}

// AddSettlement stores a settlement for a period that has none yet. Item
// rows are filtered first: a row survives only if it references an existing
// order and has hours above zero. Blank or zero-hour form rows are dropped,
// never rejected; only the survivors are validated. A submission with no
// surviving row fails with ErrNoValidItems.
func (s *Store) AddSettlement(ctx context.Context, sett core.Settlement) (core.Settlement, error) {
	if sett.Month < 1 || sett.Month > 12 {
		return core.Settlement{}, core.ErrInvalidMonth
	}
	if sett.ID == "" {
		sett.ID = uuid.NewString()
	}

	s.mu.Lock()
	if _, exists := s.snap.SettlementForPeriod(sett.Year, sett.Month); exists {
		s.mu.Unlock()
		return core.Settlement{}, &DuplicatePeriodError{Year: sett.Year, Month: sett.Month}
	}

	sett.Items = s.filterItems(sett.Items)
	if len(sett.Items) == 0 {
		s.mu.Unlock()
		return core.Settlement{}, ErrNoValidItems
	}
	if err := sett.Validate(); err != nil {
		s.mu.Unlock()
		return core.Settlement{}, err
	}

	s.snap.Settlements = append(s.snap.Settlements, cloneSettlement(sett))
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "settlement", "created", sett.ID, sett.Year, sett.Month)
	return sett, nil
}

// UpdateSettlement replaces an existing settlement. Moving it onto a period
// already settled by a different settlement is rejected.
func (s *Store) UpdateSettlement(ctx context.Context, sett core.Settlement) error {
	if sett.Month < 1 || sett.Month > 12 {
		return core.ErrInvalidMonth
	}

	s.mu.Lock()
	idx := -1
	for i := range s.snap.Settlements {
		if s.snap.Settlements[i].ID == sett.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrSettlementNotFound
	}
	if other, exists := s.snap.SettlementForPeriod(sett.Year, sett.Month); exists && other.ID != sett.ID {
		s.mu.Unlock()
		return &DuplicatePeriodError{Year: sett.Year, Month: sett.Month}
	}

	sett.Items = s.filterItems(sett.Items)
	if len(sett.Items) == 0 {
		s.mu.Unlock()
		return ErrNoValidItems
	}
	if err := sett.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}

	s.snap.Settlements[idx] = cloneSettlement(sett)
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "settlement", "updated", sett.ID, sett.Year, sett.Month)
	return nil
}

func (s *Store) DeleteSettlement(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.snap.Settlements {
		if s.snap.Settlements[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrSettlementNotFound
	}
	sett := s.snap.Settlements[idx]
	s.snap.Settlements = append(s.snap.Settlements[:idx], s.snap.Settlements[idx+1:]...)
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "settlement", "deleted", id, sett.Year, sett.Month)
	return nil
}

// SetMonthlyDocument upserts the document record for (year, month). There is
// at most one per period.
func (s *Store) SetMonthlyDocument(ctx context.Context, doc core.MonthlyDocument) (core.MonthlyDocument, error) {
	if doc.Month < 1 || doc.Month > 12 {
		return core.MonthlyDocument{}, core.ErrInvalidMonth
	}

	s.mu.Lock()
	idx := -1
	for i := range s.snap.MonthlyDocuments {
		d := s.snap.MonthlyDocuments[i]
		if d.Year == doc.Year && d.Month == doc.Month {
			idx = i
			break
		}
	}
	action := "updated"
	if idx >= 0 {
		doc.ID = s.snap.MonthlyDocuments[idx].ID
		s.snap.MonthlyDocuments[idx] = doc
	} else {
		// Document ids are the period itself, one record per period.
		doc.ID = core.PeriodID(doc.Year, doc.Month)
		s.snap.MonthlyDocuments = append(s.snap.MonthlyDocuments, doc)
		action = "created"
	}
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "document", action, doc.ID, doc.Year, doc.Month)
	return doc, nil
}

// DeleteMonthlyDocument clears the document record for (year, month).
func (s *Store) DeleteMonthlyDocument(ctx context.Context, year, month int) error {
	s.mu.Lock()
	idx := -1
	for i := range s.snap.MonthlyDocuments {
		d := s.snap.MonthlyDocuments[i]
		if d.Year == year && d.Month == month {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrDocumentNotFound
	}
	id := s.snap.MonthlyDocuments[idx].ID
	s.snap.MonthlyDocuments = append(s.snap.MonthlyDocuments[:idx], s.snap.MonthlyDocuments[idx+1:]...)
	s.persist(ctx)
	s.mu.Unlock()

	s.notify(ctx, "document", "deleted", id, year, month)
	return nil
}

// filterItems keeps rows that reference a known order with hours above zero
// and stamps ids on rows that lack one. Untouched form rows arrive with an
// empty order id and zero hours. Caller holds the lock.
func (s *Store) filterItems(items []core.SettlementItem) []core.SettlementItem {
	var out []core.SettlementItem
	for _, item := range items {
		if item.OrderID == "" || item.Hours <= 0 {
			continue
		}
		if _, ok := s.snap.OrderByID(item.OrderID); !ok {
			continue
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		out = append(out, item)
	}
	return out
}

// dropOrderItems removes items referencing any of the given order ids and
// discards settlements that end up with no item at all.
func dropOrderItems(settlements []core.Settlement, orderIDs map[string]struct{}) []core.Settlement {
	var out []core.Settlement
	for _, sett := range settlements {
		kept := make([]core.SettlementItem, 0, len(sett.Items))
		for _, item := range sett.Items {
			if _, gone := orderIDs[item.OrderID]; gone {
				continue
			}
			kept = append(kept, item)
		}
		if len(kept) == 0 {
			continue
		}
		sett.Items = kept
		out = append(out, sett)
	}
	return out
}

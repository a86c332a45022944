// Package orderstore holds the in-memory view of the paginated,
// filtered order feed. REST page loads, status mutations and real-time
// pushes all converge here; the store is the single writer of its own
// state and everything else reads snapshots.
package orderstore

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/example/chefdesk/internal/models"
)

// Fetcher retrieves one page of the order feed.
type Fetcher interface {
	FetchOrders(ctx context.Context, f models.Filters, page, limit int) (models.OrderPage, error)
}

// LoadError wraps a failed page fetch. The previously loaded docs are
// left untouched, so the caller can keep rendering and offer a retry.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return "orders load failed: " + e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }

// ErrInvalidDateRange means the end date precedes the start date.
var ErrInvalidDateRange = errors.New("end date before start date")

// Store is the order feed state. All mutation goes through its
// methods; the mutex keeps the fetch goroutines and the real-time
// delivery goroutine from interleaving mid-update.
type Store struct {
	mu       sync.Mutex
	fetch    Fetcher
	log      *zap.Logger
	limit    int
	filters  models.Filters
	docs     []models.OrderGroup
	total    int
	page     int
	seq      uint64
	inflight int
	updating map[string]struct{}
}

// New constructs a Store fetching limit-sized pages.
func New(fetch Fetcher, limit int, log *zap.Logger) *Store {
	if limit <= 0 {
		limit = 10
	}
	return &Store{
		fetch:    fetch,
		log:      log,
		limit:    limit,
		page:     1,
		updating: make(map[string]struct{}),
	}
}

// Load replaces the feed wholesale with page 1 for the given criteria.
// Overlapping loads are coalesced: each call bumps a sequence token and
// a response is applied only while its token is still current, so a
// slow earlier reply can never clobber a faster later one.
func (s *Store) Load(ctx context.Context, f models.Filters) error {
	if !f.DatesValid() {
		return ErrInvalidDateRange
	}

	s.mu.Lock()
	s.seq++
	token := s.seq
	s.filters = f
	s.inflight++
	s.mu.Unlock()

	page, err := s.fetch.FetchOrders(ctx, f, 1, s.limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if token != s.seq {
		s.log.Debug("discarding stale load response", zap.Uint64("token", token))
		return nil
	}
	if err != nil {
		return &LoadError{Err: err}
	}

	s.docs = page.Docs
	s.total = page.TotalDocs
	s.page = 1
	return nil
}

// LoadMore appends the next page to the end of the feed. It is a no-op
// while any fetch is in flight or when everything is already loaded.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight > 0 || len(s.docs) >= s.total {
		s.mu.Unlock()
		return nil
	}
	token := s.seq
	next := s.page + 1
	f := s.filters
	s.inflight++
	s.mu.Unlock()

	page, err := s.fetch.FetchOrders(ctx, f, next, s.limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if token != s.seq {
		s.log.Debug("discarding stale page append", zap.Int("page", next))
		return nil
	}
	if err != nil {
		return &LoadError{Err: err}
	}

	s.docs = append(s.docs, page.Docs...)
	s.total = page.TotalDocs
	s.page = next
	return nil
}

// Refresh re-runs a wholesale load with the current criteria.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	f := s.filters
	s.mu.Unlock()
	return s.Load(ctx, f)
}

// ApplyRealtimeUpdate patches one item's status in place. The lookup
// runs against current state at call time. A miss on either id means
// the group is not loaded under the current filter window; the event
// is dropped as acceptable staleness, not an error. Re-delivery of the
// same event is a harmless overwrite.
func (s *Store) ApplyRealtimeUpdate(ev models.StatusUpdateEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for gi := range s.docs {
		if s.docs[gi].ID != ev.MainOrderID {
			continue
		}
		for ii := range s.docs[gi].Items {
			if s.docs[gi].Items[ii].ID == ev.OrderID {
				s.docs[gi].Items[ii].Status = ev.OrderStatus
				return
			}
		}
	}

	s.log.Debug("status push for unloaded order dropped",
		zap.String("main_order_id", ev.MainOrderID),
		zap.String("order_id", ev.OrderID))
}

// BeginMutation marks an item as undergoing a server-side status
// mutation. It returns false when the item is already locked, in which
// case the caller must treat its action as a no-op.
func (s *Store) BeginMutation(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.updating[itemID]; busy {
		return false
	}
	s.updating[itemID] = struct{}{}
	return true
}

// EndMutation releases the mutation lock. Callers invoke it on success
// and failure alike so an item is never left permanently locked.
func (s *Store) EndMutation(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.updating, itemID)
}

// IsUpdating reports whether an item is mid-mutation.
func (s *Store) IsUpdating(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.updating[itemID]
	return busy
}

// Snapshot is a point-in-time copy of the feed for rendering.
type Snapshot struct {
	Docs      []models.OrderGroup
	TotalDocs int
	Page      int
	Filters   models.Filters
}

// HasMore reports whether further pages exist.
func (snap Snapshot) HasMore() bool {
	return len(snap.Docs) < snap.TotalDocs
}

// Snapshot copies the current state. Item slices are copied too so a
// later real-time patch cannot mutate a snapshot already handed out.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]models.OrderGroup, len(s.docs))
	copy(docs, s.docs)
	for i := range docs {
		items := make([]models.OrderItem, len(docs[i].Items))
		copy(items, docs[i].Items)
		docs[i].Items = items
	}

	return Snapshot{Docs: docs, TotalDocs: s.total, Page: s.page, Filters: s.filters}
}

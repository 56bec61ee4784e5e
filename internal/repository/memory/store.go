// Package memory is an in-process backend used when no database is configured
// and by service tests. It honors the same contracts as the Postgres repositories:
// transactions are serialized and rolled back on error, and zoom slots cannot overlap.
package memory

import (
	"context"
	"sync"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// Store holds every table in memory.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	tickets      map[string]domain.Ticket
	sequences    map[string]int
	timeline     []domain.TimelineEntry
	diagnoses    map[string]domain.Diagnosis
	workOrders   map[string]domain.WorkOrder
	spareparts   map[string]domain.SparepartRequest
	zoomAccounts map[string]domain.ZoomAccount
	users        map[string]domain.User
	assets       map[string]domain.Asset
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tickets:      map[string]domain.Ticket{},
		sequences:    map[string]int{},
		diagnoses:    map[string]domain.Diagnosis{},
		workOrders:   map[string]domain.WorkOrder{},
		spareparts:   map[string]domain.SparepartRequest{},
		zoomAccounts: map[string]domain.ZoomAccount{},
		users:        map[string]domain.User{},
		assets:       map[string]domain.Asset{},
	}
}

type txKey struct{}

// WithinTx serializes units of work and restores the previous state when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	tickets    map[string]domain.Ticket
	sequences  map[string]int
	timeline   int
	diagnoses  map[string]domain.Diagnosis
	workOrders map[string]domain.WorkOrder
	spareparts map[string]domain.SparepartRequest
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		tickets:    copyMap(s.tickets),
		sequences:  copyMap(s.sequences),
		timeline:   len(s.timeline),
		diagnoses:  copyMap(s.diagnoses),
		workOrders: copyMap(s.workOrders),
		spareparts: copyMap(s.spareparts),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = snap.tickets
	s.sequences = snap.sequences
	s.timeline = s.timeline[:snap.timeline]
	s.diagnoses = snap.diagnoses
	s.workOrders = snap.workOrders
	s.spareparts = snap.spareparts
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Repositories bundles the store's repository views.
type Repositories struct {
	Tickets           repository.TicketRepository
	Timeline          repository.TimelineRepository
	Diagnoses         repository.DiagnosisRepository
	WorkOrders        repository.WorkOrderRepository
	SparepartRequests repository.SparepartRequestRepository
	ZoomAccounts      repository.ZoomAccountRepository
	Users             repository.UserRepository
	Assets            repository.AssetRepository
}

// Repositories returns views over the store.
func (s *Store) Repositories() Repositories {
	return Repositories{
		Tickets:           &ticketRepo{s: s},
		Timeline:          &timelineRepo{s: s},
		Diagnoses:         &diagnosisRepo{s: s},
		WorkOrders:        &workOrderRepo{s: s},
		SparepartRequests: &sparepartRepo{s: s},
		ZoomAccounts:      &zoomAccountRepo{s: s},
		Users:             &userRepo{s: s},
		Assets:            &assetRepo{s: s},
	}
}

// PutUser registers a directory user.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutAsset registers an asset in the registry.
func (s *Store) PutAsset(a domain.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.Code+"/"+a.NUP] = a
}

// PutZoomAccount registers a conferencing account.
func (s *Store) PutZoomAccount(a domain.ZoomAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoomAccounts[a.ID] = a
}

func (s *Store) hasWorkOrdersLocked(ticketID string) bool {
	for _, wo := range s.workOrders {
		if wo.TicketID == ticketID {
			return true
		}
	}
	return false
}

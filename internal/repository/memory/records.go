package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

type timelineRepo struct {
	s *Store
}

func (r *timelineRepo) Create(_ context.Context, e *domain.TimelineEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	r.s.timeline = append(r.s.timeline, *e)
	return nil
}

func (r *timelineRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TimelineEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.TimelineEntry
	for _, e := range r.s.timeline {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type diagnosisRepo struct {
	s *Store
}

func (r *diagnosisRepo) GetByTicket(_ context.Context, ticketID string) (*domain.Diagnosis, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.diagnoses[ticketID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *diagnosisRepo) Upsert(_ context.Context, d *domain.Diagnosis) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	existing, ok := r.s.diagnoses[d.TicketID]
	if ok {
		d.ID, d.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		d.ID, d.CreatedAt = uuid.NewString(), now
	}
	d.UpdatedAt = now
	r.s.diagnoses[d.TicketID] = *d
	return !ok, nil
}

func (r *diagnosisRepo) Delete(_ context.Context, ticketID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.diagnoses[ticketID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.diagnoses, ticketID)
	return nil
}

type workOrderRepo struct {
	s *Store
}

func (r *workOrderRepo) Create(_ context.Context, wo *domain.WorkOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[wo.TicketID]; !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	wo.ID = uuid.NewString()
	wo.CreatedAt, wo.UpdatedAt = now, now
	r.s.workOrders[wo.ID] = cloneWorkOrder(*wo)
	return nil
}

func (r *workOrderRepo) Update(_ context.Context, wo *domain.WorkOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.workOrders[wo.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := cloneWorkOrder(*wo)
	updated.TicketID, updated.Type, updated.CreatedBy, updated.CreatedAt = existing.TicketID, existing.Type, existing.CreatedBy, existing.CreatedAt
	updated.UpdatedAt = time.Now()
	wo.UpdatedAt = updated.UpdatedAt
	r.s.workOrders[wo.ID] = updated
	return nil
}

func (r *workOrderRepo) GetByID(_ context.Context, id string) (*domain.WorkOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wo, ok := r.s.workOrders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneWorkOrder(wo)
	return &c, nil
}

func (r *workOrderRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.workOrders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.workOrders, id)
	for sid, sp := range r.s.spareparts {
		if sp.WorkOrderID == id {
			delete(r.s.spareparts, sid)
		}
	}
	return nil
}

func (r *workOrderRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.WorkOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.WorkOrder
	for _, wo := range r.s.workOrders {
		if wo.TicketID == ticketID {
			out = append(out, cloneWorkOrder(wo))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *workOrderRepo) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	list, err := r.ListByTicket(ctx, ticketID)
	return len(list), err
}

func (r *workOrderRepo) matching(filter repository.WorkOrderFilter) []domain.WorkOrder {
	var out []domain.WorkOrder
	for _, wo := range r.s.workOrders {
		t, ok := r.s.tickets[wo.TicketID]
		if !ok || !filter.Visibility.Matches(t.RequesterID, t.AssigneeID, true) {
			continue
		}
		if filter.TicketID != "" && wo.TicketID != filter.TicketID {
			continue
		}
		if filter.Status != "" && wo.Status != filter.Status {
			continue
		}
		if filter.Type != "" && wo.Type != filter.Type {
			continue
		}
		if !matchesSearch(filter.Search, append([]string{t.Number, t.Title}, workOrderText(wo)...)...) {
			continue
		}
		out = append(out, wo)
	}
	return out
}

func workOrderText(wo domain.WorkOrder) []string {
	var out []string
	for _, item := range wo.Items {
		out = append(out, item.Name)
	}
	if wo.Vendor != nil {
		out = append(out, wo.Vendor.Name, wo.Vendor.Description)
	}
	if wo.License != nil {
		out = append(out, wo.License.Name, wo.License.Description)
	}
	return out
}

func (r *workOrderRepo) List(_ context.Context, filter repository.WorkOrderFilter) ([]domain.WorkOrder, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := r.matching(filter)
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	page := paginate(matched, filter.Limit, filter.Offset)
	out := make([]domain.WorkOrder, len(page))
	for i, wo := range page {
		out[i] = cloneWorkOrder(wo)
	}
	return out, len(matched), nil
}

func (r *workOrderRepo) Stats(_ context.Context, filter repository.WorkOrderFilter) (repository.WorkOrderStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := repository.WorkOrderStats{ByStatus: map[domain.WorkOrderStatus]int{}, ByType: map[domain.WorkOrderType]int{}}
	for _, wo := range r.matching(filter) {
		stats.Total++
		stats.ByStatus[wo.Status]++
		stats.ByType[wo.Type]++
	}
	return stats, nil
}

func cloneWorkOrder(wo domain.WorkOrder) domain.WorkOrder {
	wo.Items = append([]domain.SparepartItem(nil), wo.Items...)
	if wo.Vendor != nil {
		v := *wo.Vendor
		wo.Vendor = &v
	}
	if wo.License != nil {
		l := *wo.License
		wo.License = &l
	}
	if wo.CompletedAt != nil {
		c := *wo.CompletedAt
		wo.CompletedAt = &c
	}
	return wo
}

type sparepartRepo struct {
	s *Store
}

func (r *sparepartRepo) Create(_ context.Context, req *domain.SparepartRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wo, ok := r.s.workOrders[req.WorkOrderID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	req.ID = uuid.NewString()
	req.TicketID = wo.TicketID
	req.CreatedAt, req.UpdatedAt = now, now
	r.s.spareparts[req.ID] = *req
	return nil
}

func (r *sparepartRepo) Update(_ context.Context, req *domain.SparepartRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.spareparts[req.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Status = req.Status
	existing.ApprovedBy = req.ApprovedBy
	existing.ApprovedAt = req.ApprovedAt
	existing.RejectionReason = req.RejectionReason
	existing.Notes = req.Notes
	existing.UpdatedAt = time.Now()
	req.UpdatedAt = existing.UpdatedAt
	r.s.spareparts[req.ID] = existing
	return nil
}

func (r *sparepartRepo) GetByID(_ context.Context, id string) (*domain.SparepartRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.spareparts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (r *sparepartRepo) GetForUpdate(ctx context.Context, id string) (*domain.SparepartRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *sparepartRepo) matching(filter repository.SparepartRequestFilter) []domain.SparepartRequest {
	var out []domain.SparepartRequest
	for _, req := range r.s.spareparts {
		t, ok := r.s.tickets[req.TicketID]
		if !ok || !filter.Visibility.Matches(t.RequesterID, t.AssigneeID, true) {
			continue
		}
		if filter.WorkOrderID != "" && req.WorkOrderID != filter.WorkOrderID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if !matchesSearch(filter.Search, req.ItemName, t.Number) {
			continue
		}
		out = append(out, req)
	}
	return out
}

func (r *sparepartRepo) List(_ context.Context, filter repository.SparepartRequestFilter) ([]domain.SparepartRequest, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := r.matching(filter)
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return append([]domain.SparepartRequest(nil), paginate(matched, filter.Limit, filter.Offset)...), len(matched), nil
}

func (r *sparepartRepo) CountByStatus(_ context.Context, filter repository.SparepartRequestFilter) (map[domain.SparepartRequestStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := map[domain.SparepartRequestStatus]int{}
	for _, req := range r.matching(filter) {
		counts[req.Status]++
	}
	return counts, nil
}

type zoomAccountRepo struct {
	s *Store
}

func (r *zoomAccountRepo) ListActive(_ context.Context) ([]domain.ZoomAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.ZoomAccount
	for _, a := range r.s.zoomAccounts {
		if a.IsActive {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *zoomAccountRepo) GetByID(_ context.Context, id string) (*domain.ZoomAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.zoomAccounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

type userRepo struct {
	s *Store
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.User
	for _, u := range r.s.users {
		if u.Roles.Has(role) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

type assetRepo struct {
	s *Store
}

func (r *assetRepo) Find(_ context.Context, code, nup string) (*domain.Asset, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.assets[code+"/"+nup]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

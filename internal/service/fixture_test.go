package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/repository/memory"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const zoomDay = "2026-03-02"

type fixture struct {
	store      *memory.Store
	repos      memory.Repositories
	recorder   *events.Recorder
	tickets    *TicketService
	zoom       *ZoomBookingService
	diagnoses  *DiagnosisService
	workOrders *WorkOrderService
	spareparts *SparepartRequestService

	admin, tech, tech2, employee, employee2, penyedia *auth.Principal
}

func principal(id string, roles ...domain.Role) *auth.Principal {
	return &auth.Principal{UserID: id, Name: id, Roles: domain.NewRoleSet(roles...)}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	dispatcher := events.NewInMemoryDispatcher()
	recorder := &events.Recorder{}
	events.SubscribeAll(dispatcher, recorder.Handle)

	deps := Dependencies{
		Tx:                store,
		Tickets:           repos.Tickets,
		Timeline:          repos.Timeline,
		Diagnoses:         repos.Diagnoses,
		WorkOrders:        repos.WorkOrders,
		SparepartRequests: repos.SparepartRequests,
		ZoomAccounts:      repos.ZoomAccounts,
		Users:             repos.Users,
		Assets:            repos.Assets,
		Dispatcher:        dispatcher,
		Now:               func() time.Time { return fixedNow },
	}
	zoom := NewZoomBookingService(deps)
	f := &fixture{
		store:      store,
		repos:      repos,
		recorder:   recorder,
		zoom:       zoom,
		tickets:    NewTicketService(deps, zoom),
		diagnoses:  NewDiagnosisService(deps),
		workOrders: NewWorkOrderService(deps),
		spareparts: NewSparepartRequestService(deps),
		admin:      principal("admin", domain.RoleAdminLayanan),
		tech:       principal("tech", domain.RoleTeknisi),
		tech2:      principal("tech2", domain.RoleTeknisi),
		employee:   principal("emp", domain.RolePegawai),
		employee2:  principal("emp2", domain.RolePegawai),
		penyedia:   principal("penyedia", domain.RoleAdminPenyedia),
	}
	for _, p := range []*auth.Principal{f.admin, f.tech, f.tech2, f.employee, f.employee2, f.penyedia} {
		store.PutUser(domain.User{ID: p.UserID, Name: p.UserID, Roles: p.Roles})
	}
	store.PutAsset(domain.Asset{Code: "3100102001", NUP: "12", Name: "Laptop", Location: "Room 101"})
	store.PutZoomAccount(domain.ZoomAccount{ID: "zoom-a", Name: "Zoom A", Priority: 1, IsActive: true})
	store.PutZoomAccount(domain.ZoomAccount{ID: "zoom-b", Name: "Zoom B", Priority: 2, IsActive: true})
	store.PutZoomAccount(domain.ZoomAccount{ID: "zoom-off", Name: "Zoom Off", Priority: 0, IsActive: false})
	return f
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code, de.Message)
	return de
}

func (f *fixture) repairTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), f.employee, TicketCreateInput{
		Type:      domain.TicketTypePerbaikan,
		Title:     "Laptop does not boot",
		AssetCode: "3100102001",
		AssetNUP:  "12",
	})
	require.NoError(t, err)
	return ticket
}

// assignedTicket creates a repair ticket assigned to f.tech.
func (f *fixture) assignedTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket := f.repairTicket(t)
	ticket, err := f.tickets.Assign(context.Background(), f.admin, ticket.ID, f.tech.UserID, "")
	require.NoError(t, err)
	return ticket
}

func (f *fixture) diagnose(t *testing.T, ticketID string, repair domain.RepairType) {
	t.Helper()
	_, err := f.diagnoses.Submit(context.Background(), f.tech, ticketID, DiagnosisInput{
		ProblemDescription: "Disk failure",
		ProblemCategory:    domain.ProblemHardware,
		RepairType:         repair,
		RepairDescription:  "Replaced cable",
		UnrepairableReason: "Board burnt",
	})
	require.NoError(t, err)
}

func (f *fixture) sparepartOrder(t *testing.T, ticketID string) *domain.WorkOrder {
	t.Helper()
	wo, err := f.workOrders.Create(context.Background(), f.tech, ticketID, WorkOrderInput{
		Type:  domain.WorkOrderSparepart,
		Items: []domain.SparepartItem{{Name: "SSD 512GB", Quantity: 1, Unit: "pcs"}},
	})
	require.NoError(t, err)
	return wo
}

func (f *fixture) zoomTicket(t *testing.T, p *auth.Principal, start, end string) (*domain.Ticket, error) {
	t.Helper()
	return f.tickets.CreateTicket(context.Background(), p, TicketCreateInput{
		Type:      domain.TicketTypeZoomMeeting,
		Title:     "Weekly sync " + start,
		Date:      zoomDay,
		StartTime: start,
		EndTime:   end,
	})
}

func (f *fixture) reload(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := f.repos.Tickets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket
}

func bookingDay(t *testing.T) repository.BookingQuery {
	t.Helper()
	day, err := domain.ParseDate(zoomDay)
	require.NoError(t, err)
	return repository.BookingQuery{From: day, To: day}
}

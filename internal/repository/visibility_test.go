package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/servicedesk/internal/domain"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

func TestVisibilityMatchesIsAUnion(t *testing.T) {
	cases := []struct {
		name     string
		v        Visibility
		assignee *string
		hasWO    bool
		want     bool
	}{
		{"unrestricted", Visibility{Unrestricted: true}, nil, false, true},
		{"own ticket", Visibility{RequesterID: "emp"}, nil, false, true},
		{"assigned technician", Visibility{RequesterID: "tech", AssigneeID: "tech"}, strPtr("tech"), false, true},
		{"other technician", Visibility{RequesterID: "tech2", AssigneeID: "tech2"}, strPtr("tech"), false, false},
		{"provider with work orders", Visibility{RequesterID: "p", WithWorkOrders: true}, nil, true, true},
		{"provider without work orders", Visibility{RequesterID: "p", WithWorkOrders: true}, nil, false, false},
		{"no clauses", Visibility{}, strPtr("emp"), true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.v.Matches("emp", tc.assignee, tc.hasWO))
		})
	}
}

func TestScopeNarrows(t *testing.T) {
	assert.True(t, Scope{}.Matches("emp", nil, false))
	assert.True(t, Scope{InvolvedUserID: "tech"}.Matches("emp", strPtr("tech"), false))
	assert.False(t, Scope{InvolvedUserID: "tech"}.Matches("emp", nil, false))
	assert.False(t, Scope{AssigneeID: "tech"}.Matches("tech", nil, false))
	assert.False(t, Scope{HasWorkOrders: true}.Matches("emp", nil, false))
}

func TestTicketWhereRendersVisibilityAndScope(t *testing.T) {
	b := ticketWhere(TicketFilter{
		Visibility: Visibility{RequesterID: "u1", AssigneeID: "u1", WithWorkOrders: true},
		Scope:      Scope{InvolvedUserID: "u1"},
		Type:       domain.TicketTypePerbaikan,
		Statuses:   []domain.TicketStatus{domain.StatusAssigned, domain.StatusOnHold},
		Search:     " Laptop ",
	})

	assert.Equal(t,
		" WHERE (t.requester_id = $1 OR t.assignee_id = $2 OR "+fmt.Sprintf(hasWorkOrdersSQL, "t")+")"+
			" AND (t.requester_id = $3 OR t.assignee_id = $3)"+
			" AND t.type = $4"+
			" AND t.status IN ($5,$6)"+
			" AND (LOWER(t.ticket_number) LIKE $7 OR LOWER(t.title) LIKE $7 OR LOWER(t.description) LIKE $7)",
		b.sql())
	assert.Equal(t, []any{"u1", "u1", "u1", domain.TicketTypePerbaikan, "assigned", "on_hold", "%laptop%"}, b.args)
}

func TestTicketWhereUnrestrictedAndEmptyVisibility(t *testing.T) {
	assert.Equal(t, "", ticketWhere(TicketFilter{Visibility: Visibility{Unrestricted: true}}).sql())
	assert.Equal(t, " WHERE FALSE", ticketWhere(TicketFilter{}).sql())
}

func TestPageSQLClampsLimits(t *testing.T) {
	b := &sqlBuilder{}
	assert.Equal(t, " LIMIT $1 OFFSET $2", pageSQL(b, 500, -3))
	assert.Equal(t, []any{100, 0}, b.args)
}

func TestMapPgError(t *testing.T) {
	assert.ErrorIs(t, mapPgError(pgx.ErrNoRows), ErrNotFound)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(mapPgError(pgx.ErrNoRows)).Code)
	assert.Equal(t, "RACE_LOST", apperrors.ToDomainError(mapPgError(&pgconn.PgError{Code: "40001"})).Code)

	overlap := mapPgError(&pgconn.PgError{Code: "23P01"})
	assert.ErrorIs(t, overlap, ErrRaceLost)
	assert.ErrorIs(t, overlap, ErrBookingOverlap)

	for _, code := range []string{"40001", "40P01", "55P03"} {
		assert.ErrorIs(t, mapPgError(&pgconn.PgError{Code: code}), ErrRaceLost, code)
	}

	other := errors.New("boom")
	assert.Equal(t, other, mapPgError(other))
	assert.NoError(t, mapPgError(nil))
}

package repository

import (
	"fmt"
	"strings"
)

// Visibility restricts which tickets a caller may read. Clauses are OR-ed:
// a ticket is visible when any populated clause matches.
type Visibility struct {
	Unrestricted   bool
	RequesterID    string
	AssigneeID     string
	WithWorkOrders bool
}

// Matches is the single predicate shared by list queries and single-record checks.
func (v Visibility) Matches(requesterID string, assigneeID *string, hasWorkOrders bool) bool {
	if v.Unrestricted {
		return true
	}
	if v.RequesterID != "" && requesterID == v.RequesterID {
		return true
	}
	if v.AssigneeID != "" && assigneeID != nil && *assigneeID == v.AssigneeID {
		return true
	}
	return v.WithWorkOrders && hasWorkOrders
}

// Scope narrows a visible set further. Fields are AND-ed with the visibility clauses.
type Scope struct {
	// InvolvedUserID keeps tickets requested by or assigned to the user.
	InvolvedUserID string
	AssigneeID     string
	HasWorkOrders  bool
}

// Matches reports whether a ticket passes the narrowing scope.
func (s Scope) Matches(requesterID string, assigneeID *string, hasWorkOrders bool) bool {
	assigned := func(id string) bool { return assigneeID != nil && *assigneeID == id }
	if s.InvolvedUserID != "" && requesterID != s.InvolvedUserID && !assigned(s.InvolvedUserID) {
		return false
	}
	if s.AssigneeID != "" && !assigned(s.AssigneeID) {
		return false
	}
	if s.HasWorkOrders && !hasWorkOrders {
		return false
	}
	return true
}

// sqlBuilder accumulates positional arguments for a WHERE clause.
type sqlBuilder struct {
	clauses []string
	args    []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *sqlBuilder) where(clause string) {
	b.clauses = append(b.clauses, clause)
}

func (b *sqlBuilder) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.arg(v)
	}
	b.where(fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
}

func (b *sqlBuilder) sql() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

const hasWorkOrdersSQL = "EXISTS (SELECT 1 FROM work_orders wo WHERE wo.ticket_id = %s.id)"

// visibility renders v against the tickets table aliased as alias.
func (b *sqlBuilder) visibility(alias string, v Visibility) {
	if v.Unrestricted {
		return
	}
	var or []string
	if v.RequesterID != "" {
		or = append(or, fmt.Sprintf("%s.requester_id = %s", alias, b.arg(v.RequesterID)))
	}
	if v.AssigneeID != "" {
		or = append(or, fmt.Sprintf("%s.assignee_id = %s", alias, b.arg(v.AssigneeID)))
	}
	if v.WithWorkOrders {
		or = append(or, fmt.Sprintf(hasWorkOrdersSQL, alias))
	}
	if len(or) == 0 {
		b.where("FALSE")
		return
	}
	b.where("(" + strings.Join(or, " OR ") + ")")
}

func (b *sqlBuilder) scope(alias string, s Scope) {
	if s.InvolvedUserID != "" {
		p := b.arg(s.InvolvedUserID)
		b.where(fmt.Sprintf("(%s.requester_id = %s OR %s.assignee_id = %s)", alias, p, alias, p))
	}
	if s.AssigneeID != "" {
		b.where(fmt.Sprintf("%s.assignee_id = %s", alias, b.arg(s.AssigneeID)))
	}
	if s.HasWorkOrders {
		b.where(fmt.Sprintf(hasWorkOrdersSQL, alias))
	}
}

func (b *sqlBuilder) search(columns []string, term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	p := b.arg("%" + strings.ToLower(term) + "%")
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE %s", c, p)
	}
	b.where("(" + strings.Join(parts, " OR ") + ")")
}

func pageSQL(b *sqlBuilder, limit, offset int) string {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %s OFFSET %s", b.arg(limit), b.arg(offset))
}

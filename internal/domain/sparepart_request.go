package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SparepartRequestStatus is the approval state of a sparepart request.
type SparepartRequestStatus string

const (
	SparepartPending   SparepartRequestStatus = "pending"
	SparepartApproved  SparepartRequestStatus = "approved"
	SparepartFulfilled SparepartRequestStatus = "fulfilled"
	SparepartRejected  SparepartRequestStatus = "rejected"
)

var sparepartTransitions = map[SparepartRequestStatus]map[SparepartRequestStatus]bool{
	SparepartPending:  {SparepartApproved: true, SparepartRejected: true},
	SparepartApproved: {SparepartFulfilled: true, SparepartRejected: true},
}

// CanTransition reports whether the approval workflow allows from → to.
func (s SparepartRequestStatus) CanTransition(to SparepartRequestStatus) bool {
	return sparepartTransitions[s][to]
}

func (s SparepartRequestStatus) Valid() bool {
	switch s {
	case SparepartPending, SparepartApproved, SparepartFulfilled, SparepartRejected:
		return true
	}
	return false
}

// SparepartRequest is an item request tied to a work order with its own approval workflow.
type SparepartRequest struct {
	ID              string
	WorkOrderID     string
	TicketID        string
	ItemName        string
	Quantity        int
	Unit            string
	EstimatedPrice  *decimal.Decimal
	Notes           string
	RequestedBy     string
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason string
	Status          SparepartRequestStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

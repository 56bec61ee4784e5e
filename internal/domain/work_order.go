package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// WorkOrderType selects the procurement payload.
type WorkOrderType string

const (
	WorkOrderSparepart WorkOrderType = "sparepart"
	WorkOrderVendor    WorkOrderType = "vendor"
	WorkOrderLicense   WorkOrderType = "license"
)

func (t WorkOrderType) Valid() bool {
	switch t {
	case WorkOrderSparepart, WorkOrderVendor, WorkOrderLicense:
		return true
	}
	return false
}

// WorkOrderStatus is the procurement state.
type WorkOrderStatus string

const (
	WorkOrderRequested     WorkOrderStatus = "requested"
	WorkOrderInProcurement WorkOrderStatus = "in_procurement"
	WorkOrderCompleted     WorkOrderStatus = "completed"
	WorkOrderUnsuccessful  WorkOrderStatus = "unsuccessful"
)

func (s WorkOrderStatus) Valid() bool {
	switch s {
	case WorkOrderRequested, WorkOrderInProcurement, WorkOrderCompleted, WorkOrderUnsuccessful:
		return true
	}
	return false
}

// Terminal states count towards ticket readiness.
func (s WorkOrderStatus) Terminal() bool {
	return s == WorkOrderCompleted || s == WorkOrderUnsuccessful
}

// SparepartItem is one line of a sparepart work order.
type SparepartItem struct {
	Name           string           `json:"name"`
	Quantity       int              `json:"quantity"`
	Unit           string           `json:"unit"`
	Remarks        string           `json:"remarks,omitempty"`
	EstimatedPrice *decimal.Decimal `json:"estimated_price,omitempty"`
}

// VendorDetails describes an external repair vendor.
type VendorDetails struct {
	Name        string `json:"name"`
	Contact     string `json:"contact,omitempty"`
	Description string `json:"description,omitempty"`
}

// LicenseDetails describes a software license to procure.
type LicenseDetails struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WorkOrder is a procurement sub-task of a repair ticket.
type WorkOrder struct {
	ID              string
	TicketID        string
	Type            WorkOrderType
	Status          WorkOrderStatus
	Items           []SparepartItem
	Vendor          *VendorDetails
	License         *LicenseDetails
	CreatedBy       string
	CompletionNotes string
	FailureReason   string
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var (
	ErrSameStatus           = errors.New("work order already has this status")
	ErrFailureReasonMissing = errors.New("failure reason is required when marking unsuccessful")
	ErrWorkOrderLocked      = errors.New("work order can only be changed while requested")
)

// CheckTransition allows any change to a different status; unsuccessful needs a reason.
func (w *WorkOrder) CheckTransition(target WorkOrderStatus, failureReason string) error {
	if w.Status == target {
		return ErrSameStatus
	}
	if target == WorkOrderUnsuccessful && failureReason == "" {
		return ErrFailureReasonMissing
	}
	return nil
}

// Mutable reports whether the payload may still be edited or deleted.
func (w *WorkOrder) Mutable() bool {
	return w.Status == WorkOrderRequested
}

// Apply moves the work order to target, stamping completion or failure data.
func (w *WorkOrder) Apply(target WorkOrderStatus, notes, failureReason string, now time.Time) {
	w.Status = target
	switch target {
	case WorkOrderCompleted:
		w.CompletedAt = &now
		if notes != "" {
			w.CompletionNotes = notes
		}
		w.FailureReason = ""
	case WorkOrderUnsuccessful:
		w.FailureReason = failureReason
		w.CompletedAt = nil
	default:
		w.CompletedAt = nil
	}
}

// WorkOrdersReady is the readiness aggregate over one ticket's work orders.
// It is idempotent and order independent.
func WorkOrdersReady(orders []WorkOrder) bool {
	if len(orders) == 0 {
		return false
	}
	for _, wo := range orders {
		if !wo.Status.Terminal() {
			return false
		}
	}
	return true
}

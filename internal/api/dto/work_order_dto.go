package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
)

// DiagnosisRequest payload.
type DiagnosisRequest struct {
	ProblemDescription  string                 `json:"problem_description" validate:"required"`
	ProblemCategory     domain.ProblemCategory `json:"problem_category" validate:"required"`
	RepairType          domain.RepairType      `json:"repair_type" validate:"required"`
	RepairDescription   string                 `json:"repair_description"`
	UnrepairableReason  string                 `json:"unrepairable_reason"`
	AlternativeSolution string                 `json:"alternative_solution"`
	TechnicianNotes     string                 `json:"technician_notes"`
	EstimatedDays       string                 `json:"estimasi_hari" validate:"max=50"`
}

// Input converts the payload.
func (r DiagnosisRequest) Input() service.DiagnosisInput {
	return service.DiagnosisInput{
		ProblemDescription:  r.ProblemDescription,
		ProblemCategory:     r.ProblemCategory,
		RepairType:          r.RepairType,
		RepairDescription:   r.RepairDescription,
		UnrepairableReason:  r.UnrepairableReason,
		AlternativeSolution: r.AlternativeSolution,
		TechnicianNotes:     r.TechnicianNotes,
		EstimatedDays:       r.EstimatedDays,
	}
}

// DiagnosisResponse mirrors a diagnosis record.
type DiagnosisResponse struct {
	ID                  string                 `json:"id"`
	TicketID            string                 `json:"ticket_id"`
	TechnicianID        string                 `json:"technician_id"`
	ProblemDescription  string                 `json:"problem_description"`
	ProblemCategory     domain.ProblemCategory `json:"problem_category"`
	RepairType          domain.RepairType      `json:"repair_type"`
	RepairDescription   string                 `json:"repair_description,omitempty"`
	UnrepairableReason  string                 `json:"unrepairable_reason,omitempty"`
	AlternativeSolution string                 `json:"alternative_solution,omitempty"`
	TechnicianNotes     string                 `json:"technician_notes,omitempty"`
	EstimatedDays       string                 `json:"estimasi_hari,omitempty"`
	NeedsWorkOrder      bool                   `json:"needs_work_order"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// Diagnosis maps a diagnosis record.
func Diagnosis(d *domain.Diagnosis) DiagnosisResponse {
	return DiagnosisResponse{
		ID:                  d.ID,
		TicketID:            d.TicketID,
		TechnicianID:        d.TechnicianID,
		ProblemDescription:  d.ProblemDescription,
		ProblemCategory:     d.ProblemCategory,
		RepairType:          d.RepairType,
		RepairDescription:   d.RepairDescription,
		UnrepairableReason:  d.UnrepairableReason,
		AlternativeSolution: d.AlternativeSolution,
		TechnicianNotes:     d.TechnicianNotes,
		EstimatedDays:       d.EstimatedDays,
		NeedsWorkOrder:      d.NeedsWorkOrder(),
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

// SparepartItemRequest is one requested item line.
type SparepartItemRequest struct {
	Name           string           `json:"name" validate:"required,max=255"`
	Quantity       int              `json:"quantity" validate:"min=1"`
	Unit           string           `json:"unit" validate:"max=50"`
	Remarks        string           `json:"remarks"`
	EstimatedPrice *decimal.Decimal `json:"estimated_price"`
}

// VendorRequest describes the external vendor.
type VendorRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Contact     string `json:"contact" validate:"max=255"`
	Description string `json:"description"`
}

// LicenseRequest describes the license to buy.
type LicenseRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

// WorkOrderRequest payload for create and update.
type WorkOrderRequest struct {
	Type    domain.WorkOrderType   `json:"type" validate:"required,oneof=sparepart vendor license"`
	Items   []SparepartItemRequest `json:"items" validate:"required_if=Type sparepart,dive"`
	Vendor  *VendorRequest         `json:"vendor" validate:"required_if=Type vendor"`
	License *LicenseRequest        `json:"license" validate:"required_if=Type license"`
}

// Input converts the payload.
func (r WorkOrderRequest) Input() service.WorkOrderInput {
	in := service.WorkOrderInput{Type: r.Type}
	for _, it := range r.Items {
		in.Items = append(in.Items, domain.SparepartItem{
			Name:           it.Name,
			Quantity:       it.Quantity,
			Unit:           it.Unit,
			Remarks:        it.Remarks,
			EstimatedPrice: it.EstimatedPrice,
		})
	}
	if r.Vendor != nil {
		in.Vendor = &domain.VendorDetails{Name: r.Vendor.Name, Contact: r.Vendor.Contact, Description: r.Vendor.Description}
	}
	if r.License != nil {
		in.License = &domain.LicenseDetails{Name: r.License.Name, Description: r.License.Description}
	}
	return in
}

// WorkOrderStatusRequest payload.
type WorkOrderStatusRequest struct {
	Status          domain.WorkOrderStatus `json:"status" validate:"required,oneof=requested in_procurement completed unsuccessful"`
	CompletionNotes string                 `json:"completion_notes"`
	FailureReason   string                 `json:"failure_reason" validate:"required_if=Status unsuccessful"`
}

// Input converts the payload.
func (r WorkOrderStatusRequest) Input() service.WorkOrderStatusInput {
	return service.WorkOrderStatusInput{Status: r.Status, CompletionNotes: r.CompletionNotes, FailureReason: r.FailureReason}
}

// WorkOrderResponse mirrors a work order.
type WorkOrderResponse struct {
	ID              string                 `json:"id"`
	TicketID        string                 `json:"ticket_id"`
	Type            domain.WorkOrderType   `json:"type"`
	Status          domain.WorkOrderStatus `json:"status"`
	Items           []domain.SparepartItem `json:"items,omitempty"`
	Vendor          *domain.VendorDetails  `json:"vendor,omitempty"`
	License         *domain.LicenseDetails `json:"license,omitempty"`
	CreatedBy       string                 `json:"created_by"`
	CompletionNotes string                 `json:"completion_notes,omitempty"`
	FailureReason   string                 `json:"failure_reason,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// WorkOrder maps a work order.
func WorkOrder(wo *domain.WorkOrder) WorkOrderResponse {
	return WorkOrderResponse{
		ID:              wo.ID,
		TicketID:        wo.TicketID,
		Type:            wo.Type,
		Status:          wo.Status,
		Items:           wo.Items,
		Vendor:          wo.Vendor,
		License:         wo.License,
		CreatedBy:       wo.CreatedBy,
		CompletionNotes: wo.CompletionNotes,
		FailureReason:   wo.FailureReason,
		CompletedAt:     wo.CompletedAt,
		CreatedAt:       wo.CreatedAt,
		UpdatedAt:       wo.UpdatedAt,
	}
}

// WorkOrders maps a list.
func WorkOrders(items []domain.WorkOrder) []WorkOrderResponse {
	out := make([]WorkOrderResponse, 0, len(items))
	for i := range items {
		out = append(out, WorkOrder(&items[i]))
	}
	return out
}

// SparepartRequestPayload files an item request.
type SparepartRequestPayload struct {
	ItemName       string           `json:"item_name" validate:"required,max=255"`
	Quantity       int              `json:"quantity" validate:"min=1"`
	Unit           string           `json:"unit" validate:"max=50"`
	EstimatedPrice *decimal.Decimal `json:"estimated_price"`
	Notes          string           `json:"notes"`
}

// Input converts the payload.
func (r SparepartRequestPayload) Input() service.SparepartRequestInput {
	return service.SparepartRequestInput{
		ItemName:       r.ItemName,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		EstimatedPrice: r.EstimatedPrice,
		Notes:          r.Notes,
	}
}

// SparepartRequestResponse mirrors a sparepart request.
type SparepartRequestResponse struct {
	ID              string                        `json:"id"`
	WorkOrderID     string                        `json:"work_order_id"`
	TicketID        string                        `json:"ticket_id"`
	ItemName        string                        `json:"item_name"`
	Quantity        int                           `json:"quantity"`
	Unit            string                        `json:"unit"`
	EstimatedPrice  *decimal.Decimal              `json:"estimated_price,omitempty"`
	Notes           string                        `json:"notes,omitempty"`
	RequestedBy     string                        `json:"requested_by"`
	ApprovedBy      *string                       `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time                    `json:"approved_at,omitempty"`
	RejectionReason string                        `json:"rejection_reason,omitempty"`
	Status          domain.SparepartRequestStatus `json:"status"`
	CreatedAt       time.Time                     `json:"created_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
}

// SparepartRequest maps a request.
func SparepartRequest(r *domain.SparepartRequest) SparepartRequestResponse {
	return SparepartRequestResponse{
		ID:              r.ID,
		WorkOrderID:     r.WorkOrderID,
		TicketID:        r.TicketID,
		ItemName:        r.ItemName,
		Quantity:        r.Quantity,
		Unit:            r.Unit,
		EstimatedPrice:  r.EstimatedPrice,
		Notes:           r.Notes,
		RequestedBy:     r.RequestedBy,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectionReason: r.RejectionReason,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// SparepartRequests maps a list.
func SparepartRequests(items []domain.SparepartRequest) []SparepartRequestResponse {
	out := make([]SparepartRequestResponse, 0, len(items))
	for i := range items {
		out = append(out, SparepartRequest(&items[i]))
	}
	return out
}

package domain

import "time"

// ProblemCategory classifies the fault.
type ProblemCategory string

const (
	ProblemHardware ProblemCategory = "hardware"
	ProblemSoftware ProblemCategory = "software"
	ProblemOther    ProblemCategory = "lainnya"
)

func (c ProblemCategory) Valid() bool {
	switch c {
	case ProblemHardware, ProblemSoftware, ProblemOther:
		return true
	}
	return false
}

// RepairType is the technician's chosen remedy.
type RepairType string

const (
	RepairDirect        RepairType = "direct_repair"
	RepairNeedSparepart RepairType = "need_sparepart"
	RepairNeedVendor    RepairType = "need_vendor"
	RepairNeedLicense   RepairType = "need_license"
	RepairUnrepairable  RepairType = "unrepairable"
)

func (r RepairType) Valid() bool {
	switch r {
	case RepairDirect, RepairNeedSparepart, RepairNeedVendor, RepairNeedLicense, RepairUnrepairable:
		return true
	}
	return false
}

// NeedsWorkOrder reports whether procurement must finish before the ticket can close.
func (r RepairType) NeedsWorkOrder() bool {
	switch r {
	case RepairNeedSparepart, RepairNeedVendor, RepairNeedLicense:
		return true
	}
	return false
}

// Diagnosis is the technician's assessment of a repair ticket. One per ticket.
type Diagnosis struct {
	ID                  string
	TicketID            string
	TechnicianID        string
	ProblemDescription  string
	ProblemCategory     ProblemCategory
	RepairType          RepairType
	RepairDescription   string
	UnrepairableReason  string
	AlternativeSolution string
	TechnicianNotes     string
	EstimatedDays       string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NeedsWorkOrder is shorthand for the repair type check.
func (d *Diagnosis) NeedsWorkOrder() bool {
	return d != nil && d.RepairType.NeedsWorkOrder()
}

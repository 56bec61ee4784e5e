package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
)

// SparepartRequestsHandler exposes the item request workflow.
type SparepartRequestsHandler struct {
	service *service.SparepartRequestService
}

// NewSparepartRequestsHandler constructs handler.
func NewSparepartRequestsHandler(s *service.SparepartRequestService) *SparepartRequestsHandler {
	return &SparepartRequestsHandler{service: s}
}

// Create POST /work-orders/:id/sparepart-requests.
func (h *SparepartRequestsHandler) Create(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SparepartRequestPayload
	if err := bind(c, &req); err != nil {
		return err
	}
	created, err := h.service.Create(c.UserContext(), p, c.Params("id"), req.Input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.SparepartRequest(created)})
}

func sparepartListInput(c *fiber.Ctx) service.SparepartRequestListInput {
	in := service.SparepartRequestListInput{
		WorkOrderID: c.Query("work_order_id"),
		Status:      domain.SparepartRequestStatus(c.Query("status")),
		Search:      c.Query("search"),
	}
	in.Limit, in.Offset = paging(c)
	return in
}

// List GET /sparepart-requests.
func (h *SparepartRequestsHandler) List(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	in := sparepartListInput(c)
	items, total, err := h.service.List(c.UserContext(), p, in)
	if err != nil {
		return err
	}
	return page(c, dto.SparepartRequests(items), total, in.Limit, in.Offset)
}

// Stats GET /sparepart-requests/stats.
func (h *SparepartRequestsHandler) Stats(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), p, sparepartListInput(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Get GET /sparepart-requests/:id.
func (h *SparepartRequestsHandler) Get(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SparepartRequest(req)})
}

// Approve POST /sparepart-requests/:id/approve.
func (h *SparepartRequestsHandler) Approve(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	req, err := h.service.Approve(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SparepartRequest(req)})
}

// Reject POST /sparepart-requests/:id/reject.
func (h *SparepartRequestsHandler) Reject(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var body dto.RejectRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	req, err := h.service.Reject(c.UserContext(), p, c.Params("id"), body.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SparepartRequest(req)})
}

// Fulfill POST /sparepart-requests/:id/fulfill.
func (h *SparepartRequestsHandler) Fulfill(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	req, err := h.service.Fulfill(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SparepartRequest(req)})
}

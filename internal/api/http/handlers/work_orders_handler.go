package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
)

// WorkOrdersHandler exposes procurement work orders.
type WorkOrdersHandler struct {
	service *service.WorkOrderService
}

// NewWorkOrdersHandler constructs handler.
func NewWorkOrdersHandler(s *service.WorkOrderService) *WorkOrdersHandler {
	return &WorkOrdersHandler{service: s}
}

// Create POST /tickets/:id/work-orders.
func (h *WorkOrdersHandler) Create(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.WorkOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	wo, err := h.service.Create(c.UserContext(), p, c.Params("id"), req.Input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.WorkOrder(wo)})
}

func workOrderListInput(c *fiber.Ctx) service.WorkOrderListInput {
	in := service.WorkOrderListInput{
		TicketID: c.Query("ticket_id"),
		Status:   domain.WorkOrderStatus(c.Query("status")),
		Type:     domain.WorkOrderType(c.Query("type")),
		Search:   c.Query("search"),
	}
	in.Limit, in.Offset = paging(c)
	return in
}

// List GET /work-orders.
func (h *WorkOrdersHandler) List(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	in := workOrderListInput(c)
	items, total, err := h.service.List(c.UserContext(), p, in)
	if err != nil {
		return err
	}
	return page(c, dto.WorkOrders(items), total, in.Limit, in.Offset)
}

// Stats GET /work-orders/stats.
func (h *WorkOrdersHandler) Stats(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), p, workOrderListInput(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Get GET /work-orders/:id.
func (h *WorkOrdersHandler) Get(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	wo, err := h.service.Get(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.WorkOrder(wo)})
}

// Update PATCH /work-orders/:id.
func (h *WorkOrdersHandler) Update(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.WorkOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	wo, err := h.service.Update(c.UserContext(), p, c.Params("id"), req.Input())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.WorkOrder(wo)})
}

// Delete DELETE /work-orders/:id.
func (h *WorkOrdersHandler) Delete(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateStatus POST /work-orders/:id/status.
func (h *WorkOrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.WorkOrderStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	wo, err := h.service.UpdateStatus(c.UserContext(), p, c.Params("id"), req.Input())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.WorkOrder(wo)})
}

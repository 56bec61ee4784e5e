package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/service"
)

// DiagnosisHandler exposes a ticket's technician diagnosis.
type DiagnosisHandler struct {
	service *service.DiagnosisService
}

// NewDiagnosisHandler constructs handler.
func NewDiagnosisHandler(s *service.DiagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{service: s}
}

// Get GET /tickets/:id/diagnosis.
func (h *DiagnosisHandler) Get(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	d, err := h.service.Get(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.Diagnosis(d)})
}

// Submit PUT /tickets/:id/diagnosis.
func (h *DiagnosisHandler) Submit(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DiagnosisRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.service.Submit(c.UserContext(), p, c.Params("id"), req.Input())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.Diagnosis(d)})
}

// Delete DELETE /tickets/:id/diagnosis.
func (h *DiagnosisHandler) Delete(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), p, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

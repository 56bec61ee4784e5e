package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// ZoomHandler exposes booking availability and the shared calendar.
type ZoomHandler struct {
	service *service.ZoomBookingService
}

// NewZoomHandler constructs handler.
func NewZoomHandler(s *service.ZoomBookingService) *ZoomHandler {
	return &ZoomHandler{service: s}
}

func parseWindow(q dto.AvailabilityQuery) (domain.BookingWindow, error) {
	date, err := domain.ParseDate(q.Date)
	if err != nil {
		return domain.BookingWindow{}, apperrors.NewFieldError("date", "date must be YYYY-MM-DD")
	}
	start, err := domain.ParseClock(q.StartTime)
	if err != nil {
		return domain.BookingWindow{}, apperrors.NewFieldError("start_time", "start time must be HH:MM")
	}
	end, err := domain.ParseClock(q.EndTime)
	if err != nil {
		return domain.BookingWindow{}, apperrors.NewFieldError("end_time", "end time must be HH:MM")
	}
	if end <= start {
		return domain.BookingWindow{}, apperrors.NewFieldError("end_time", "end time must be after start time")
	}
	return domain.BookingWindow{Date: date, Start: start, End: end}, nil
}

// Availability GET /zoom/availability.
func (h *ZoomHandler) Availability(c *fiber.Ctx) error {
	if _, err := auth.MustPrincipal(c); err != nil {
		return err
	}
	var q dto.AvailabilityQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := dto.Validate(q); err != nil {
		return err
	}
	w, err := parseWindow(q)
	if err != nil {
		return err
	}
	accounts, err := h.service.Availability(c.UserContext(), w, q.Exclude)
	if err != nil {
		return err
	}
	suggestion, err := h.service.ValidateAndAssign(c.UserContext(), w)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"accounts": accounts, "suggestion": suggestion}})
}

// Calendar GET /zoom/calendar.
func (h *ZoomHandler) Calendar(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var q dto.CalendarQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := dto.Validate(q); err != nil {
		return err
	}
	from, err := domain.ParseDate(q.From)
	if err != nil {
		return apperrors.NewFieldError("from", "from must be YYYY-MM-DD")
	}
	to, err := domain.ParseDate(q.To)
	if err != nil {
		return apperrors.NewFieldError("to", "to must be YYYY-MM-DD")
	}
	bookings, err := h.service.Calendar(c.UserContext(), p, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bookings})
}

// Accounts GET /zoom/accounts.
func (h *ZoomHandler) Accounts(c *fiber.Ctx) error {
	p, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	accounts, err := h.service.ListAccounts(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ZoomAccounts(accounts)})
}

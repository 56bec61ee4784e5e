package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// bind parses the JSON body into req and runs tag validation.
func bind(c *fiber.Ctx, req any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	return dto.Validate(req)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

// paging reads limit/offset, accepting page/page_size as well.
func paging(c *fiber.Ctx) (limit, offset int) {
	limit = parseInt(c.Query("limit"), 0)
	if limit == 0 {
		limit = parseInt(c.Query("page_size"), defaultLimit)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = parseInt(c.Query("offset"), -1)
	if offset < 0 {
		page := parseInt(c.Query("page"), 1)
		if page < 1 {
			page = 1
		}
		offset = (page - 1) * limit
	}
	return limit, offset
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func page[T any](c *fiber.Ctx, items []T, total, limit, offset int) error {
	return c.JSON(dto.Page[T]{Data: items, Total: total, Limit: limit, Offset: offset})
}

package handler

import (
	"errors"
	"strconv"
	"strings"

	"go-cake-store/internal/service"
	"go-cake-store/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps an engine error onto a status code and an {"error": ...} body.
func respondError(c *fiber.Ctx, err error) error {
	var typed *service.Error
	if !errors.As(err, &typed) {
		logger.FromContext(c.UserContext()).Error("unclassified error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	status := fiber.StatusInternalServerError
	switch typed.Kind {
	case service.KindValidation, service.KindBusinessRule:
		status = fiber.StatusBadRequest
	case service.KindNotFound:
		status = fiber.StatusNotFound
	case service.KindStore:
		if typed.Retryable {
			status = fiber.StatusServiceUnavailable
			c.Set(fiber.HeaderRetryAfter, "1")
		}
		logger.FromContext(c.UserContext()).Error("store failure", zap.String("op", typed.Op), zap.Error(typed.Err))
	}
	return c.Status(status).JSON(fiber.Map{"error": typed.Message()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// parseIDList parses "1,2,3". Blank entries are skipped.
func parseIDList(raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func parseOptionalInt64(raw string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalBool(raw string) (*bool, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

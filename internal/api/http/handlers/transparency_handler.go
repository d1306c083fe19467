package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
)

// TransparencyHandler serves the public accountability endpoints.
type TransparencyHandler struct {
	transparency *service.TransparencyService
	departments  repository.DepartmentRepository
}

// NewTransparencyHandler constructs handler.
func NewTransparencyHandler(transparency *service.TransparencyService, departments repository.DepartmentRepository) *TransparencyHandler {
	return &TransparencyHandler{transparency: transparency, departments: departments}
}

// Metrics GET /transparency.
func (h *TransparencyHandler) Metrics(c *fiber.Ctx) error {
	metrics, err := h.transparency.Metrics(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

// Departments GET /departments.
func (h *TransparencyHandler) Departments(c *fiber.Ctx) error {
	depts, err := h.departments.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DepartmentsFromDomain(depts)})
}

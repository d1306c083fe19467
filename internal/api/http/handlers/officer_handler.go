package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// OfficerHandler manages triage endpoints for officers and admins.
type OfficerHandler struct {
	issues *service.IssueService
}

// NewOfficerHandler constructs handler.
func NewOfficerHandler(issueService *service.IssueService) *OfficerHandler {
	return &OfficerHandler{issues: issueService}
}

// Queue GET /officer/queue.
func (h *OfficerHandler) Queue(c *fiber.Ctx) error {
	statuses := parseStatuses(c.Query("status"))
	limit, offset := parsePagination(c)
	issues, err := h.issues.ListQueue(c.Context(), statuses, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueSummariesFromDomain(issues)})
}

// UpdateStatus PATCH /issues/:id/status.
func (h *OfficerHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	issue, err := h.issues.UpdateStatus(c.Context(), principal.Profile, c.Params("id"), req.Status, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueSummaryFromDomain(issue)})
}

// Assign POST /issues/:id/assign.
func (h *OfficerHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignOfficerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.OfficerID == "" {
		return apperrors.NewValidationError("officer_id required", nil)
	}
	issue, err := h.issues.AssignOfficer(c.Context(), principal.Profile, c.Params("id"), req.OfficerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueSummaryFromDomain(issue)})
}

// Escalate POST /issues/:id/escalate.
func (h *OfficerHandler) Escalate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.EscalateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	issue, err := h.issues.Escalate(c.Context(), principal.Profile.ID, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueSummaryFromDomain(issue)})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

// ClassificationHandler triggers the priority pipeline for an issue.
type ClassificationHandler struct {
	classifier *service.ClassificationService
}

// NewClassificationHandler constructs handler.
func NewClassificationHandler(classifier *service.ClassificationService) *ClassificationHandler {
	return &ClassificationHandler{classifier: classifier}
}

type classifyRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    domain.IssueCategory `json:"category"`
}

// Classify POST /issues/:id/classify. The text fields are optional; when
// omitted the stored issue is classified as-is.
func (h *ClassificationHandler) Classify(c *fiber.Ctx) error {
	var req classifyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	result, err := h.classifier.Classify(c.Context(), c.Params("id"), req.Title, req.Description, req.Category)
	if err != nil {
		return err
	}
	return c.JSON(dto.ClassificationResponse{
		Success:       true,
		Category:      result.Category,
		Severity:      result.Severity,
		Department:    result.Department,
		PriorityScore: result.PriorityScore,
		Suggestions:   result.Suggestions,
	})
}

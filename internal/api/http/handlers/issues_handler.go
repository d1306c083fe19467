package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/domain"
	"github.com/spec-kit/civic-issue-service/internal/service"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// IssuesHandler manages citizen-facing issue endpoints.
type IssuesHandler struct {
	issues *service.IssueService
	votes  *service.VoteService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService, voteService *service.VoteService) *IssuesHandler {
	return &IssuesHandler{issues: issueService, votes: voteService}
}

// Submit POST /issues.
func (h *IssuesHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.IssueCreateInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		LocationAddress: req.LocationAddress,
		Ward:            req.Ward,
		City:            req.City,
	}
	issue, err := h.issues.Submit(c.Context(), principal.Profile.ID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.IssueSummaryFromDomain(issue)})
}

// Feed GET /issues.
func (h *IssuesHandler) Feed(c *fiber.Ctx) error {
	input := service.IssueFeedInput{
		Statuses:   parseStatuses(c.Query("status")),
		Categories: parseCategories(c.Query("category")),
	}
	if ward := c.Query("ward"); ward != "" {
		input.Ward = &ward
	}
	if city := c.Query("city"); city != "" {
		input.City = &city
	}
	if search := c.Query("search"); search != "" {
		input.SearchTerm = &search
	}
	input.Limit, input.Offset = parsePagination(c)

	issues, err := h.issues.ListFeed(c.Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueSummariesFromDomain(issues)})
}

// Mine GET /issues/mine.
func (h *IssuesHandler) Mine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := parsePagination(c)
	issues, err := h.issues.ListMine(c.Context(), principal.Profile.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueSummariesFromDomain(issues)})
}

// Near GET /issues/near.
func (h *IssuesHandler) Near(c *fiber.Ctx) error {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		return apperrors.NewValidationError("lat and lng are required", nil)
	}
	radiusKm := 5.0
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("radius_km must be a positive number", nil)
		}
		radiusKm = parsed
	}
	limit, _ := parsePagination(c)

	issues, err := h.issues.ListNear(c.Context(), lat, lng, radiusKm, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueSummariesFromDomain(issues)})
}

// Get GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	var callerID string
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.Profile != nil {
		callerID = principal.Profile.ID
	}
	detail, err := h.issues.Get(c.Context(), c.Params("id"), callerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueDetailFromDomain(detail.Issue, detail.VoteCount, detail.UserVoted, detail.Timeline)})
}

// ToggleVote POST /issues/:id/vote.
func (h *IssuesHandler) ToggleVote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	result, err := h.votes.ToggleVote(c.Context(), c.Params("id"), principal.Profile.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.VoteResponse{
		Voted:         result.Voted,
		VoteCount:     result.VoteCount,
		PriorityScore: result.PriorityScore,
	}})
}

// VoteCount GET /issues/:id/votes.
func (h *IssuesHandler) VoteCount(c *fiber.Ctx) error {
	count, err := h.votes.VoteCount(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"vote_count": count}})
}

// VotedIssues GET /issues/voted.
func (h *IssuesHandler) VotedIssues(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	voted, err := h.votes.VotedIssueIDs(c.Context(), principal.Profile.ID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(voted))
	for id := range voted {
		ids = append(ids, id)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"issue_ids": ids}})
}

// AddFeedback POST /issues/:id/feedback.
func (h *IssuesHandler) AddFeedback(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	fb, err := h.issues.AddFeedback(c.Context(), principal.Profile.ID, c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FeedbackResponse{
		ID:        fb.ID,
		IssueID:   fb.IssueID,
		Rating:    fb.Rating,
		Comment:   fb.Comment,
		CreatedAt: fb.CreatedAt,
	}})
}

// AttachPhoto POST /issues/:id/photo.
func (h *IssuesHandler) AttachPhoto(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	file, err := c.FormFile("photo")
	if err != nil {
		return apperrors.NewValidationError("photo file required", nil)
	}
	src, err := file.Open()
	if err != nil {
		return apperrors.NewValidationError("photo file unreadable", nil)
	}
	defer src.Close()

	url, err := h.issues.AttachPhoto(c.Context(), principal.Profile.ID, c.Params("id"), file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"photo_url": url}})
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func parseStatuses(raw string) []domain.IssueStatus {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	statuses := make([]domain.IssueStatus, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			statuses = append(statuses, domain.IssueStatus(trimmed))
		}
	}
	return statuses
}

func parseCategories(raw string) []domain.IssueCategory {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	categories := make([]domain.IssueCategory, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			categories = append(categories, domain.IssueCategory(trimmed))
		}
	}
	return categories
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AssignmentsHandler manages assignment and request protocol endpoints.
type AssignmentsHandler struct {
	assignments     *service.AssignmentService
	complaints      *service.ComplaintService
	recommendations *service.RecommendationService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(
	assignments *service.AssignmentService,
	complaints *service.ComplaintService,
	recommendations *service.RecommendationService,
) *AssignmentsHandler {
	return &AssignmentsHandler{
		assignments:     assignments,
		complaints:      complaints,
		recommendations: recommendations,
	}
}

// Assign POST /complaints/:id/assign.
func (h *AssignmentsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentID == "" {
		return apperrors.NewValidationError("agent_id required", nil)
	}
	complaint, err := h.assignments.Assign(c.Context(), principal.User, c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// Unassign POST /complaints/:id/unassign.
func (h *AssignmentsHandler) Unassign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := h.assignments.Unassign(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// CreatePullRequest POST /complaints/:id/assignment-requests.
func (h *AssignmentsHandler) CreatePullRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreatePullRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.assignments.CreatePullRequest(c.Context(), principal.User, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestResponse(request)})
}

// CreatePushRequest POST /assignment-requests.
func (h *AssignmentsHandler) CreatePushRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreatePushRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ComplaintID == "" || req.AgentID == "" {
		return apperrors.NewValidationError("complaint_id and agent_id required", nil)
	}
	request, err := h.assignments.CreatePushRequest(c.Context(), principal.User, req.ComplaintID, req.AgentID, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestResponse(request)})
}

// ListRequests GET /assignment-requests.
func (h *AssignmentsHandler) ListRequests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := repository.RequestFilter{
		PendingOnly: c.Query("pending") == "true",
		Now:         time.Now(),
		Limit:       parseInt(c.Query("page_size"), 50),
	}
	if complaintID := c.Query("complaint_id"); complaintID != "" {
		filter.ComplaintID = &complaintID
	}
	if directionStr := c.Query("direction"); directionStr != "" {
		direction := domain.RequestDirection(strings.ToUpper(directionStr))
		filter.Direction = &direction
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.RequestStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	page := parseInt(c.Query("page"), 1)
	filter.Offset = (page - 1) * filter.Limit

	requests, err := h.assignments.ListRequests(c.Context(), principal.User, filter)
	if err != nil {
		return err
	}
	items := make([]dto.AssignmentRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, requestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Respond POST /assignment-requests/:id/respond.
func (h *AssignmentsHandler) Respond(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.assignments.Respond(c.Context(), principal.User, c.Params("id"), req.Accept, req.Response)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestResponse(request)})
}

// Recommendations GET /complaints/:id/recommendations.
func (h *AssignmentsHandler) Recommendations(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := h.complaints.Get(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	recs, err := h.recommendations.Recommend(c.Context(), complaint)
	if err != nil {
		return err
	}
	items := make([]dto.RecommendationResponse, 0, len(recs))
	for _, rec := range recs {
		items = append(items, dto.RecommendationResponse{
			AgentID:   rec.Agent.ID,
			AgentName: rec.Agent.Name,
			Score:     rec.Score,
			Reasoning: rec.Reasoning,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func requestResponse(request *domain.AssignmentRequest) dto.AssignmentRequestResponse {
	return dto.AssignmentRequestResponse{
		ID:            request.ID,
		ComplaintID:   request.ComplaintID,
		AgentID:       request.AgentID,
		AdminID:       request.AdminID,
		Direction:     request.Direction,
		Status:        request.Status,
		Message:       request.Message,
		AgentResponse: request.AgentResponse,
		ExpiresAt:     request.ExpiresAt,
		RespondedAt:   request.RespondedAt,
		ReviewedBy:    request.ReviewedBy,
		CreatedAt:     request.CreatedAt,
	}
}

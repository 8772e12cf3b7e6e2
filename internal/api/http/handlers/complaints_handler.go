package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintsHandler manages complaint lifecycle endpoints.
type ComplaintsHandler struct {
	service *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{service: complaintService}
}

// Create POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if principal.Role != domain.RoleCustomer {
		return apperrors.NewForbidden("only customers may file complaints")
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.service.Create(c.Context(), principal.User, service.ComplaintCreateInput{
		Title:                  req.Title,
		Description:            req.Description,
		Category:               req.Category,
		Priority:               req.Priority,
		ExpectedResolutionDays: req.ExpectedResolutionDays,
		Location:               req.Location,
		Pincode:                req.Pincode,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	complaints, err := h.service.List(c.Context(), principal.User, parseComplaintQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := h.service.Get(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// Update PATCH /complaints/:id.
func (h *ComplaintsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.service.Update(c.Context(), principal.User, c.Params("id"), service.ComplaintUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// Delete DELETE /complaints/:id.
func (h *ComplaintsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Resolve POST /complaints/:id/resolve.
func (h *ComplaintsHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.service.Resolve(c.Context(), principal.User, c.Params("id"), req.ResolutionNotes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// Close POST /complaints/:id/close.
func (h *ComplaintsHandler) Close(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := h.service.Close(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// Reopen POST /complaints/:id/reopen.
func (h *ComplaintsHandler) Reopen(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := h.service.Reopen(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint)})
}

// AddComment POST /complaints/:id/comments.
func (h *ComplaintsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.Context(), principal.User, c.Params("id"), req.Content, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListComments GET /complaints/:id/comments.
func (h *ComplaintsHandler) ListComments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	comments, err := h.service.ListComments(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddFeedback POST /complaints/:id/feedback.
func (h *ComplaintsHandler) AddFeedback(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	feedback, err := h.service.AddFeedback(c.Context(), principal.User, c.Params("id"), service.FeedbackInput{
		Rating:                req.Rating,
		ProfessionalismRating: req.ProfessionalismRating,
		SpeedRating:           req.SpeedRating,
		Comment:               req.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": feedbackResponse(feedback)})
}

// Timeline GET /complaints/:id/timeline.
func (h *ComplaintsHandler) Timeline(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit := parseInt(c.Query("limit"), 100)
	entries, err := h.service.Timeline(c.Context(), principal.User, c.Params("id"), limit)
	if err != nil {
		return err
	}
	items := make([]dto.TimelineEntryResponse, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		items = append(items, dto.TimelineEntryResponse{
			ID:          entry.ID,
			Action:      entry.Action,
			Description: entry.Description,
			PerformedBy: entry.PerformedBy,
			Metadata:    entry.Metadata,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddAttachment POST /complaints/:id/attachments.
func (h *ComplaintsHandler) AddAttachment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StorageKey == "" || req.OriginalFilename == "" {
		return apperrors.NewValidationError("storage_key and original_filename required", nil)
	}
	if req.Type == "" {
		req.Type = domain.AttachmentTypeComplaint
	}
	attachment, err := h.service.AddAttachment(c.Context(), principal.User, c.Params("id"), service.AttachmentInput{
		StorageKey:       req.StorageKey,
		OriginalFilename: req.OriginalFilename,
		FileSize:         req.FileSize,
		MimeType:         req.MimeType,
		Type:             req.Type,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// ListAttachments GET /complaints/:id/attachments.
func (h *ComplaintsHandler) ListAttachments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	attachments, err := h.service.ListAttachments(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, attachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseComplaintQuery(c *fiber.Ctx) service.ComplaintListInput {
	input := service.ComplaintListInput{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			input.Statuses = append(input.Statuses, domain.ComplaintStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			input.Priorities = append(input.Priorities, domain.ComplaintPriority(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			input.Categories = append(input.Categories, domain.ComplaintCategory(strings.TrimSpace(part)))
		}
	}
	if breached := c.Query("sla_breached"); breached != "" {
		val := breached == "true"
		input.SLABreached = &val
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		input.SearchTerm = &search
	}
	input.Unassigned = c.Query("unassigned") == "true"
	if from := parseTime(c.Query("created_from")); from != nil {
		input.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		input.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	input.Offset = (page - 1) * pageSize
	input.Limit = pageSize
	return input
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func complaintSummary(complaint *domain.Complaint) dto.ComplaintSummary {
	return dto.ComplaintSummary{
		ID:              complaint.ID,
		ComplaintNumber: complaint.ComplaintNumber,
		Title:           complaint.Title,
		Category:        complaint.Category,
		Priority:        complaint.Priority,
		Status:          complaint.Status,
		AssignedTo:      complaint.AssignedTo,
		SLADeadline:     complaint.SLADeadline,
		SLABreached:     complaint.SLABreached,
		CreatedAt:       complaint.CreatedAt,
		UpdatedAt:       complaint.UpdatedAt,
	}
}

func complaintDetail(complaint *domain.Complaint) dto.ComplaintDetailResponse {
	return dto.ComplaintDetailResponse{
		ComplaintSummary: complaintSummary(complaint),
		CustomerID:       complaint.CustomerID,
		Description:      complaint.Description,
		ResolutionNotes:  complaint.ResolutionNotes,
		ResolvedAt:       complaint.ResolvedAt,
		ClosedAt:         complaint.ClosedAt,
		CanReopen:        complaint.CanReopen,
		ReopenWindowDays: complaint.ReopenWindowDays,
		Location:         complaint.Location,
		Pincode:          complaint.Pincode,
		AutoTriaged:      complaint.AutoTriaged,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:          comment.ID,
		ComplaintID: comment.ComplaintID,
		UserID:      comment.UserID,
		Content:     comment.Content,
		IsInternal:  comment.IsInternal,
		CreatedAt:   comment.CreatedAt,
	}
}

func feedbackResponse(feedback *domain.Feedback) dto.FeedbackResponse {
	return dto.FeedbackResponse{
		ID:                    feedback.ID,
		ComplaintID:           feedback.ComplaintID,
		Rating:                feedback.Rating,
		ProfessionalismRating: feedback.ProfessionalismRating,
		SpeedRating:           feedback.SpeedRating,
		AgentRating:           feedback.AgentRating,
		Comment:               feedback.Comment,
		CreatedAt:             feedback.CreatedAt,
	}
}

func attachmentResponse(attachment *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:               attachment.ID,
		OriginalFilename: attachment.OriginalFilename,
		FileSize:         attachment.FileSize,
		MimeType:         attachment.MimeType,
		Type:             attachment.Type,
		UploadedBy:       attachment.UploadedBy,
		UploadedAt:       attachment.UploadedAt,
	}
}

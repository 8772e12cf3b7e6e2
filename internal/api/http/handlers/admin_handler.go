package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AdminHandler serves rule management and the agent directory. All routes
// are mounted behind the admin role requirement.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// CreateTriageRule POST /admin/triage-rules.
func (h *AdminHandler) CreateTriageRule(c *fiber.Ctx) error {
	var req dto.TriageRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rule, err := h.admin.CreateTriageRule(c.Context(), triageRuleInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": triageRuleResponse(rule)})
}

// ListTriageRules GET /admin/triage-rules.
func (h *AdminHandler) ListTriageRules(c *fiber.Ctx) error {
	rules, err := h.admin.ListTriageRules(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TriageRuleResponse, 0, len(rules))
	for i := range rules {
		items = append(items, triageRuleResponse(&rules[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateTriageRule PUT /admin/triage-rules/:id.
func (h *AdminHandler) UpdateTriageRule(c *fiber.Ctx) error {
	var req dto.TriageRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rule, err := h.admin.UpdateTriageRule(c.Context(), c.Params("id"), triageRuleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": triageRuleResponse(rule)})
}

// DeleteTriageRule DELETE /admin/triage-rules/:id.
func (h *AdminHandler) DeleteTriageRule(c *fiber.Ctx) error {
	if err := h.admin.DeleteTriageRule(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateEscalationRule POST /admin/escalation-rules.
func (h *AdminHandler) CreateEscalationRule(c *fiber.Ctx) error {
	var req dto.EscalationRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rule, err := h.admin.CreateEscalationRule(c.Context(), escalationRuleInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": escalationRuleResponse(rule)})
}

// ListEscalationRules GET /admin/escalation-rules.
func (h *AdminHandler) ListEscalationRules(c *fiber.Ctx) error {
	rules, err := h.admin.ListEscalationRules(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.EscalationRuleResponse, 0, len(rules))
	for i := range rules {
		items = append(items, escalationRuleResponse(&rules[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateEscalationRule PUT /admin/escalation-rules/:id.
func (h *AdminHandler) UpdateEscalationRule(c *fiber.Ctx) error {
	var req dto.EscalationRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rule, err := h.admin.UpdateEscalationRule(c.Context(), c.Params("id"), escalationRuleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": escalationRuleResponse(rule)})
}

// DeleteEscalationRule DELETE /admin/escalation-rules/:id.
func (h *AdminHandler) DeleteEscalationRule(c *fiber.Ctx) error {
	if err := h.admin.DeleteEscalationRule(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListAgents GET /admin/agents.
func (h *AdminHandler) ListAgents(c *fiber.Ctx) error {
	filter := repository.AgentFilter{
		OnlyVerified:  c.Query("verified") == "true",
		OnlyAvailable: c.Query("available") == "true",
		Limit:         parseInt(c.Query("page_size"), 100),
	}
	if serviceType := c.Query("service_type"); serviceType != "" {
		filter.ServiceType = &serviceType
	}
	if pincode := c.Query("pincode"); pincode != "" {
		filter.Pincode = &pincode
	}
	agents, err := h.admin.ListAgents(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetAgent GET /admin/agents/:id.
func (h *AdminHandler) GetAgent(c *fiber.Ctx) error {
	detail, err := h.admin.GetAgentDetail(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.AgentDetailResponse{
		Agent:           agentResponse(detail.Agent),
		Complaints:      make([]dto.ComplaintSummary, 0, len(detail.Complaints)),
		PendingRequests: make([]dto.AssignmentRequestResponse, 0, len(detail.PendingRequests)),
	}
	for i := range detail.Complaints {
		resp.Complaints = append(resp.Complaints, complaintSummary(&detail.Complaints[i]))
	}
	for i := range detail.PendingRequests {
		resp.PendingRequests = append(resp.PendingRequests, requestResponse(&detail.PendingRequests[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// SetAgentStatus PATCH /admin/agents/:id/status.
func (h *AdminHandler) SetAgentStatus(c *fiber.Ctx) error {
	var req dto.AgentStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.admin.SetAgentStatus(c.Context(), c.Params("id"), req.Status); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": req.Status}})
}

func triageRuleInput(req dto.TriageRuleRequest) service.TriageRuleInput {
	return service.TriageRuleInput{
		Name:            req.Name,
		Category:        req.Category,
		Priority:        req.Priority,
		KeywordPatterns: req.KeywordPatterns,
		AutoAssignTo:    req.AutoAssignTo,
		IsActive:        req.IsActive,
		PriorityOrder:   req.PriorityOrder,
	}
}

func triageRuleResponse(rule *domain.TriageRule) dto.TriageRuleResponse {
	return dto.TriageRuleResponse{
		ID:              rule.ID,
		Name:            rule.Name,
		Category:        rule.Category,
		Priority:        rule.Priority,
		KeywordPatterns: rule.KeywordPatterns,
		AutoAssignTo:    rule.AutoAssignTo,
		IsActive:        rule.IsActive,
		PriorityOrder:   rule.PriorityOrder,
		CreatedAt:       rule.CreatedAt,
	}
}

func escalationRuleInput(req dto.EscalationRuleRequest) service.EscalationRuleInput {
	return service.EscalationRuleInput{
		Category:            req.Category,
		Priority:            req.Priority,
		EscalationTimeHours: req.EscalationTimeHours,
		IsActive:            req.IsActive,
	}
}

func escalationRuleResponse(rule *domain.EscalationRule) dto.EscalationRuleResponse {
	return dto.EscalationRuleResponse{
		ID:                  rule.ID,
		Category:            rule.Category,
		Priority:            rule.Priority,
		EscalationTimeHours: rule.EscalationTimeHours,
		IsActive:            rule.IsActive,
		CreatedAt:           rule.CreatedAt,
	}
}

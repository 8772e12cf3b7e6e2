package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Complaints     *handlers.ComplaintsHandler
	Assignments    *handlers.AssignmentsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	complaints := api.Group("/complaints")
	complaints.Post("", cfg.Complaints.Create)
	complaints.Get("", cfg.Complaints.List)
	complaints.Get("/:id", cfg.Complaints.Get)
	complaints.Patch("/:id", cfg.Complaints.Update)
	complaints.Delete("/:id", cfg.Complaints.Delete)
	complaints.Post("/:id/resolve", cfg.Complaints.Resolve)
	complaints.Post("/:id/close", cfg.Complaints.Close)
	complaints.Post("/:id/reopen", cfg.Complaints.Reopen)
	complaints.Post("/:id/comments", cfg.Complaints.AddComment)
	complaints.Get("/:id/comments", cfg.Complaints.ListComments)
	complaints.Post("/:id/feedback", cfg.Complaints.AddFeedback)
	complaints.Get("/:id/timeline", cfg.Complaints.Timeline)
	complaints.Post("/:id/attachments", cfg.Complaints.AddAttachment)
	complaints.Get("/:id/attachments", cfg.Complaints.ListAttachments)

	complaints.Post("/:id/assign", cfg.Assignments.Assign)
	complaints.Post("/:id/unassign", cfg.Assignments.Unassign)
	complaints.Post("/:id/assignment-requests", cfg.Assignments.CreatePullRequest)
	complaints.Get("/:id/recommendations", auth.RequireRole(domain.RoleAdmin), cfg.Assignments.Recommendations)

	requests := api.Group("/assignment-requests")
	requests.Post("", cfg.Assignments.CreatePushRequest)
	requests.Get("", cfg.Assignments.ListRequests)
	requests.Post("/:id/respond", cfg.Assignments.Respond)

	admin := api.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Post("/triage-rules", cfg.Admin.CreateTriageRule)
	admin.Get("/triage-rules", cfg.Admin.ListTriageRules)
	admin.Put("/triage-rules/:id", cfg.Admin.UpdateTriageRule)
	admin.Delete("/triage-rules/:id", cfg.Admin.DeleteTriageRule)
	admin.Post("/escalation-rules", cfg.Admin.CreateEscalationRule)
	admin.Get("/escalation-rules", cfg.Admin.ListEscalationRules)
	admin.Put("/escalation-rules/:id", cfg.Admin.UpdateEscalationRule)
	admin.Delete("/escalation-rules/:id", cfg.Admin.DeleteEscalationRule)
	admin.Get("/agents", cfg.Admin.ListAgents)
	admin.Get("/agents/:id", cfg.Admin.GetAgent)
	admin.Patch("/agents/:id/status", cfg.Admin.SetAgentStatus)
}

package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Role        domain.Role `json:"role"`
	Phone       string      `json:"phone"`
	Pincode     string      `json:"pincode"`
	ServiceType string      `json:"service_type"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse returns the token plus the authenticated profile.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Phone     string      `json:"phone,omitempty"`
	Pincode   string      `json:"pincode,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AgentResponse extends UserResponse with agent workload fields.
type AgentResponse struct {
	UserResponse
	ServiceType       string             `json:"service_type,omitempty"`
	IsVerified        bool               `json:"is_verified"`
	AgentStatus       domain.AgentStatus `json:"agent_status"`
	TotalAssigned     int                `json:"total_assigned_cases"`
	TotalResolved     int                `json:"total_resolved_cases"`
	CurrentActive     int                `json:"current_active_cases"`
	AvgResolutionHrs  float64            `json:"average_resolution_time_hours"`
	PerformanceRating float64            `json:"performance_rating"`
}

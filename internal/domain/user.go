package domain

import "time"

// Role enumerates the platform roles.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAgent    Role = "AGENT"
	RoleAdmin    Role = "ADMIN"
)

// AgentStatus represents agent availability.
type AgentStatus string

const (
	AgentStatusAvailable AgentStatus = "AVAILABLE"
	AgentStatusBusy      AgentStatus = "BUSY"
	AgentStatusOffline   AgentStatus = "OFFLINE"
)

// WorkloadThreshold is the active-case count at which an agent is
// considered fully loaded.
const WorkloadThreshold = 5

// User is the domain model for customers, agents and admins.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	Pincode      string

	// Agent-only fields.
	ServiceType       string
	IsVerified        bool
	TotalAssigned     int
	TotalResolved     int
	CurrentActive     int
	AvgResolutionHrs  float64
	PerformanceRating float64
	AgentStatus       AgentStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAvailable reports whether the agent can take more work.
func (u *User) IsAvailable() bool {
	return u.AgentStatus == AgentStatusAvailable && u.CurrentActive < WorkloadThreshold
}

package domain

import "time"

// Feedback is the customer's one-time rating of a resolved complaint.
type Feedback struct {
	ID                    string
	ComplaintID           string
	Rating                int
	ProfessionalismRating *int
	SpeedRating           *int
	AgentRating           *int
	Comment               string
	CreatedAt             time.Time
}

// ComputeAgentRating averages the sub-ratings when present. Halves round
// up, so prof=4, speed=5 yields 5.
func (f *Feedback) ComputeAgentRating() {
	sum, n := 0, 0
	if f.ProfessionalismRating != nil {
		sum += *f.ProfessionalismRating
		n++
	}
	if f.SpeedRating != nil {
		sum += *f.SpeedRating
		n++
	}
	if n == 0 {
		return
	}
	avg := (sum + n/2) / n
	f.AgentRating = &avg
}

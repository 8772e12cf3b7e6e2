// Package scoring ranks agents for complaint assignment.
package scoring

import (
	"sort"
	"strings"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const (
	weightExpertise   = 0.4
	weightWorkload    = 0.3
	weightLocation    = 0.2
	weightPerformance = 0.1

	// MinConfidence filters recommendations below this score.
	MinConfidence = 0.3
	// AutoAssignConfidence is the score at which the top candidate is
	// assigned without human review.
	AutoAssignConfidence = 0.6
	// MaxRecommendations caps the returned candidate list.
	MaxRecommendations = 3
)

// Candidate is an agent plus the history stats the scorer needs. Callers
// precompute the stats so scoring stays pure.
type Candidate struct {
	Agent              *domain.User
	ActiveCases        int
	ResolvedInCategory int
	HasHistory         bool
}

// Recommendation pairs a candidate with its confidence score.
type Recommendation struct {
	Agent     *domain.User
	Score     float64
	Reasoning string
}

// Scorer computes agent fitness for a complaint. Implementations must
// return values in [0, 1].
type Scorer interface {
	Score(complaint *domain.Complaint, candidate Candidate) float64
}

// WeightedScorer is the rule-based default: a weighted sum of expertise,
// workload, location and historical performance sub-scores.
type WeightedScorer struct{}

// NewWeightedScorer constructs the default scorer.
func NewWeightedScorer() *WeightedScorer {
	return &WeightedScorer{}
}

var categorySpecialties = map[domain.ComplaintCategory][]string{
	domain.CategoryElectronics:    {"Electronics", "Technical", "IT"},
	domain.CategoryAppliances:     {"Appliances", "Home", "Repair"},
	domain.CategoryPlumbing:       {"Plumbing", "Water", "Maintenance"},
	domain.CategoryElectrical:     {"Electrical", "Power", "Wiring"},
	domain.CategoryBilling:        {"Billing", "Finance", "Account"},
	domain.CategoryTechnical:      {"Technical", "IT", "Software"},
	domain.CategoryProductQuality: {"Repair", "Quality"},
	domain.CategoryService:        {"Support", "Service"},
	domain.CategoryOther:          {"General", "Support"},
}

// Score implements Scorer.
func (s *WeightedScorer) Score(complaint *domain.Complaint, candidate Candidate) float64 {
	score := s.expertiseScore(complaint, candidate.Agent)*weightExpertise +
		s.workloadScore(candidate.ActiveCases)*weightWorkload +
		s.locationScore(complaint, candidate.Agent)*weightLocation +
		s.performanceScore(candidate)*weightPerformance
	if score > 1.0 {
		return 1.0
	}
	return score
}

func (s *WeightedScorer) expertiseScore(complaint *domain.Complaint, agent *domain.User) float64 {
	if agent.ServiceType == "" {
		return 0.5
	}
	specialties, ok := categorySpecialties[complaint.Category]
	if !ok {
		specialties = []string{"General"}
	}
	for _, specialty := range specialties {
		if agent.ServiceType == specialty {
			return 1.0
		}
	}
	agentLower := strings.ToLower(agent.ServiceType)
	for _, specialty := range specialties {
		if strings.Contains(agentLower, strings.ToLower(specialty)) {
			return 0.7
		}
	}
	return 0.4
}

func (s *WeightedScorer) workloadScore(activeCases int) float64 {
	switch {
	case activeCases >= domain.WorkloadThreshold:
		return 0.1
	case activeCases == 0:
		return 1.0
	default:
		return 1.0 - float64(activeCases)/float64(domain.WorkloadThreshold)
	}
}

func (s *WeightedScorer) locationScore(complaint *domain.Complaint, agent *domain.User) float64 {
	if complaint.Pincode == "" || agent.Pincode == "" {
		return 0.5
	}
	if complaint.Pincode == agent.Pincode {
		return 1.0
	}
	if len(complaint.Pincode) >= 3 && len(agent.Pincode) >= 3 &&
		complaint.Pincode[:3] == agent.Pincode[:3] {
		return 0.7
	}
	return 0.4
}

func (s *WeightedScorer) performanceScore(candidate Candidate) float64 {
	if !candidate.HasHistory {
		return 0.5
	}
	switch {
	case candidate.ResolvedInCategory >= 10:
		return 1.0
	case candidate.ResolvedInCategory >= 5:
		return 0.8
	case candidate.ResolvedInCategory >= 1:
		return 0.6
	default:
		return 0.4
	}
}

// Reasoning renders the human-readable explanation for a score.
func (s *WeightedScorer) Reasoning(complaint *domain.Complaint, candidate Candidate) string {
	var reasons []string
	if s.expertiseScore(complaint, candidate.Agent) >= 0.7 {
		reasons = append(reasons, "Expertise match: "+candidate.Agent.ServiceType)
	}
	workload := s.workloadScore(candidate.ActiveCases)
	if workload >= 0.8 {
		reasons = append(reasons, "Low workload")
	} else if workload < 0.3 {
		reasons = append(reasons, "High workload")
	}
	if s.locationScore(complaint, candidate.Agent) >= 0.7 {
		reasons = append(reasons, "Local agent")
	}
	if s.performanceScore(candidate) >= 0.8 {
		reasons = append(reasons, "Strong track record")
	}
	if len(reasons) == 0 {
		return "General assignment"
	}
	return strings.Join(reasons, " • ")
}

// Recommend scores all candidates and returns the top ones above the
// confidence floor, highest first.
func Recommend(scorer *WeightedScorer, complaint *domain.Complaint, candidates []Candidate) []Recommendation {
	recs := make([]Recommendation, 0, len(candidates))
	for _, candidate := range candidates {
		score := scorer.Score(complaint, candidate)
		if score <= MinConfidence {
			continue
		}
		recs = append(recs, Recommendation{
			Agent:     candidate.Agent,
			Score:     score,
			Reasoning: scorer.Reasoning(complaint, candidate),
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

// Package scoring estimates how likely a pet is to be adopted.
package scoring

import "adopet/internal/domain"

const (
	youngAge   = 5
	adultAge   = 10
	lightPetKg = 10.0
)

// Score classifies a pet from its age in whole years and weight in kg.
func Score(p domain.Pet) domain.Probability {
	light := p.Weight <= lightPetKg
	switch {
	case p.Age <= youngAge && light:
		return domain.ProbabilityHigh
	case p.Age <= youngAge:
		return domain.ProbabilityMedium
	case p.Age <= adultAge:
		return domain.ProbabilityMedium
	case light:
		return domain.ProbabilityMedium
	default:
		return domain.ProbabilityLow
	}
}

package domain

// Probability classifies how likely a pet is to be adopted.
type Probability string

const (
	ProbabilityLow    Probability = "low"
	ProbabilityMedium Probability = "medium"
	ProbabilityHigh   Probability = "high"
)

// Rank orders the classes; unknown values rank below low.
func (p Probability) Rank() int {
	switch p {
	case ProbabilityLow:
		return 1
	case ProbabilityMedium:
		return 2
	case ProbabilityHigh:
		return 3
	}
	return 0
}

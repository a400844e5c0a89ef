package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adopet/internal/domain"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name   string
		age    int
		weight float64
		want   domain.Probability
	}{
		{"young and light", 4, 4.0, domain.ProbabilityHigh},
		{"old and light", 15, 4.0, domain.ProbabilityMedium},
		{"young boundary", 5, 10.0, domain.ProbabilityHigh},
		{"young and heavy", 3, 10.5, domain.ProbabilityMedium},
		{"adult and light", 6, 2.0, domain.ProbabilityMedium},
		{"adult and heavy", 10, 30.0, domain.ProbabilityMedium},
		{"old and heavy", 11, 10.1, domain.ProbabilityLow},
		{"old boundary weight", 11, 10.0, domain.ProbabilityMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pet := domain.Pet{Type: domain.PetTypeCat, Name: "Miau", Breed: "Siamese", Age: tc.age, Color: "grey", Weight: tc.weight}
			assert.Equal(t, tc.want, Score(pet))
		})
	}
}

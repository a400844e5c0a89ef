package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adopet/internal/domain"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewAdoptionStartsAwaitingEvaluation(t *testing.T) {
	a := domain.NewAdoption("a1", "pet-1", "tutor-1", "lots of space", now)
	assert.Equal(t, domain.StatusAwaitingEvaluation, a.Status)
	assert.Equal(t, "2024-03-01T12:00:00Z", a.CreatedAt)
	assert.Empty(t, a.Justification)
	assert.Nil(t, a.EvaluatedAt)
}

func TestApproveIsTerminal(t *testing.T) {
	a := domain.NewAdoption("a1", "pet-1", "tutor-1", "reason", now)
	require.NoError(t, a.Approve(now))
	assert.Equal(t, domain.StatusApproved, a.Status)
	require.NotNil(t, a.EvaluatedAt)

	err := a.Approve(now)
	assert.True(t, errors.Is(err, domain.ErrIllegalTransition))
	err = a.Reject("changed my mind", now)
	assert.True(t, errors.Is(err, domain.ErrIllegalTransition))
	assert.Equal(t, domain.StatusApproved, a.Status)
	assert.Empty(t, a.Justification)
}

func TestRejectStoresJustification(t *testing.T) {
	a := domain.NewAdoption("a1", "pet-1", "tutor-1", "reason", now)
	require.NoError(t, a.Reject("  no yard for a large dog ", now))
	assert.Equal(t, domain.StatusRejected, a.Status)
	assert.Equal(t, "no yard for a large dog", a.Justification)

	assert.ErrorIs(t, a.Approve(now), domain.ErrIllegalTransition)
}

func TestRejectRequiresJustification(t *testing.T) {
	for _, j := range []string{"", "   "} {
		a := domain.NewAdoption("a1", "pet-1", "tutor-1", "reason", now)
		err := a.Reject(j, now)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.Equal(t, domain.StatusAwaitingEvaluation, a.Status)
		assert.Nil(t, a.EvaluatedAt)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := domain.NewValidationError("first", "second")
	assert.Equal(t, "validation failed: first; second", err.Error())
	assert.Equal(t, "validation failed", (&domain.ValidationError{}).Error())
}

func TestProbabilityRank(t *testing.T) {
	assert.Less(t, domain.ProbabilityLow.Rank(), domain.ProbabilityMedium.Rank())
	assert.Less(t, domain.ProbabilityMedium.Rank(), domain.ProbabilityHigh.Rank())
	assert.Zero(t, domain.Probability("unknown").Rank())
}

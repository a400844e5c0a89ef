package admission_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adopet/internal/admission"
	"adopet/internal/domain"
)

type memStore struct {
	pets      map[string]domain.Pet
	adoptions []domain.Adoption
	err       error
}

func newMemStore() *memStore {
	return &memStore{pets: map[string]domain.Pet{
		"pet-1": {ID: "pet-1"},
		"pet-2": {ID: "pet-2"},
	}}
}

func (s *memStore) add(petID, tutorID string, status domain.AdoptionStatus) {
	s.adoptions = append(s.adoptions, domain.Adoption{
		ID:      fmt.Sprintf("a-%d", len(s.adoptions)+1),
		PetID:   petID,
		TutorID: tutorID,
		Status:  status,
	})
}

func (s *memStore) GetPet(_ context.Context, id string) (domain.Pet, error) {
	p, ok := s.pets[id]
	if !ok {
		return p, errors.New("not found")
	}
	return p, nil
}

func (s *memStore) FindAdoptionsByPetAndStatus(_ context.Context, petID string, status domain.AdoptionStatus) ([]domain.Adoption, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Adoption
	for _, a := range s.adoptions {
		if a.PetID == petID && a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) FindAdoptionsByTutorAndStatus(_ context.Context, tutorID string, status domain.AdoptionStatus) ([]domain.Adoption, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Adoption
	for _, a := range s.adoptions {
		if a.TutorID == tutorID && a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func candidate() admission.Candidate {
	return admission.Candidate{PetID: "pet-1", TutorID: "tutor-1", Reason: "reason"}
}

func TestPetInProgressBlocksRegardlessOfTutor(t *testing.T) {
	store := newMemStore()
	store.add("pet-1", "tutor-9", domain.StatusAwaitingEvaluation)
	rule := admission.PetInProgress{Adoptions: store}

	err := rule.Validate(context.Background(), candidate())
	var v *admission.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, admission.RulePetInProgress, v.Rule)

	store.adoptions[0].Status = domain.StatusRejected
	assert.NoError(t, rule.Validate(context.Background(), candidate()))
}

func TestTutorPendingBlocksAnyPet(t *testing.T) {
	store := newMemStore()
	store.add("pet-2", "tutor-1", domain.StatusAwaitingEvaluation)
	rule := admission.TutorPending{Adoptions: store}

	err := rule.Validate(context.Background(), candidate())
	var v *admission.Violation
	require.ErrorAs(t, err, &v)

	other := candidate()
	other.TutorID = "tutor-2"
	assert.NoError(t, rule.Validate(context.Background(), other))
}

func TestTutorApprovedLimit(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 4; i++ {
		store.add(fmt.Sprintf("old-%d", i), "tutor-1", domain.StatusApproved)
	}
	store.add("old-x", "tutor-1", domain.StatusRejected)
	rule := admission.TutorApprovedLimit{Adoptions: store, Limit: admission.MaxApprovedAdoptions}
	assert.NoError(t, rule.Validate(context.Background(), candidate()), "four approvals are below the limit")

	store.add("old-4", "tutor-1", domain.StatusApproved)
	err := rule.Validate(context.Background(), candidate())
	var v *admission.Violation
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Reason, "maximum of 5")
}

func TestTutorApprovedLimitDefaultsWhenUnset(t *testing.T) {
	store := newMemStore()
	for i := 0; i < admission.MaxApprovedAdoptions; i++ {
		store.add(fmt.Sprintf("old-%d", i), "tutor-1", domain.StatusApproved)
	}
	err := admission.TutorApprovedLimit{Adoptions: store}.Validate(context.Background(), candidate())
	assert.Error(t, err)
}

func TestPetAvailable(t *testing.T) {
	store := newMemStore()
	rule := admission.PetAvailable{Pets: store}
	require.NoError(t, rule.Validate(context.Background(), candidate()))

	store.pets["pet-1"] = domain.Pet{ID: "pet-1", Adopted: true}
	var v *admission.Violation
	require.ErrorAs(t, rule.Validate(context.Background(), candidate()), &v)
}

type recordingRule struct {
	name  string
	err   error
	calls int
}

func (r *recordingRule) Name() string { return r.name }

func (r *recordingRule) Validate(context.Context, admission.Candidate) error {
	r.calls++
	return r.err
}

func TestChainRunsEveryRuleAndAggregates(t *testing.T) {
	first := &recordingRule{name: "first", err: &admission.Violation{Rule: "first", Reason: "no"}}
	second := &recordingRule{name: "second"}
	third := &recordingRule{name: "third", err: &admission.Violation{Rule: "third", Reason: "also no"}}
	chain := admission.NewChain(first, second, nil)
	chain.Register(third)

	err := chain.Run(context.Background(), candidate())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"no", "also no"}, ve.Reasons)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 1, third.calls)
	assert.Equal(t, []string{"first", "second", "third"}, chain.Names())
}

func TestChainStopsOnInfrastructureError(t *testing.T) {
	boom := errors.New("disk on fire")
	first := &recordingRule{name: "first", err: boom}
	second := &recordingRule{name: "second"}

	err := admission.NewChain(first, second).Run(context.Background(), candidate())
	require.ErrorIs(t, err, boom)
	assert.False(t, domain.IsValidation(err))
	assert.Zero(t, second.calls)
}

func TestEmptyChainAdmits(t *testing.T) {
	assert.NoError(t, admission.NewChain().Run(context.Background(), candidate()))
}

func TestDefaultChain(t *testing.T) {
	store := newMemStore()
	assert.Equal(t, admission.KnownRules(), admission.Default(store).Names())
	assert.Equal(t,
		[]string{admission.RulePetInProgress, admission.RuleTutorPending, admission.RuleTutorApprovedLimit},
		admission.Default(store, admission.RulePetAvailable).Names())
	assert.Equal(t, admission.KnownRules(), admission.Default(store, admission.RuleTutorPending, admission.RulePetInProgress).Names(),
		"pending rules always run")

	store.add("pet-1", "tutor-1", domain.StatusAwaitingEvaluation)
	err := admission.Default(store).Run(context.Background(), candidate())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Reasons, 2)
}

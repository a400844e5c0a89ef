package admission

import (
	"context"
	"fmt"

	"adopet/internal/domain"
)

// MaxApprovedAdoptions is how many approved adoptions a tutor may hold
// before further requests are refused.
const MaxApprovedAdoptions = 5

const (
	RulePetAvailable       = "pet-available"
	RulePetInProgress      = "pet-in-progress"
	RuleTutorPending       = "tutor-pending"
	RuleTutorApprovedLimit = "tutor-approved-limit"
)

// AdoptionFinder is the indexed lookup the rules query.
type AdoptionFinder interface {
	FindAdoptionsByPetAndStatus(ctx context.Context, petID string, status domain.AdoptionStatus) ([]domain.Adoption, error)
	FindAdoptionsByTutorAndStatus(ctx context.Context, tutorID string, status domain.AdoptionStatus) ([]domain.Adoption, error)
}

type PetGetter interface {
	GetPet(ctx context.Context, id string) (domain.Pet, error)
}

// Store is everything the default chain needs.
type Store interface {
	AdoptionFinder
	PetGetter
}

// Default builds the standard chain, skipping the optional rules named in
// disabled. Names outside OptionalRules are ignored: the pending rules back
// the unique indexes on adoptions and always run.
func Default(store Store, disabled ...string) *Chain {
	skip := make(map[string]struct{}, len(disabled))
	for _, name := range disabled {
		if name == RulePetAvailable || name == RuleTutorApprovedLimit {
			skip[name] = struct{}{}
		}
	}
	c := NewChain()
	for _, r := range []Rule{
		PetAvailable{Pets: store},
		PetInProgress{Adoptions: store},
		TutorPending{Adoptions: store},
		TutorApprovedLimit{Adoptions: store, Limit: MaxApprovedAdoptions},
	} {
		if _, ok := skip[r.Name()]; ok {
			continue
		}
		c.Register(r)
	}
	return c
}

// KnownRules lists every rule of the default chain, in evaluation order.
func KnownRules() []string {
	return []string{RulePetAvailable, RulePetInProgress, RuleTutorPending, RuleTutorApprovedLimit}
}

// OptionalRules lists the rules that may be disabled. The store enforces one
// pending request per pet and per tutor on its own, so those rules stay on.
func OptionalRules() []string {
	return []string{RulePetAvailable, RuleTutorApprovedLimit}
}

// PetAvailable refuses pets that were already adopted.
type PetAvailable struct {
	Pets PetGetter
}

func (PetAvailable) Name() string { return RulePetAvailable }

func (r PetAvailable) Validate(ctx context.Context, c Candidate) error {
	p, err := r.Pets.GetPet(ctx, c.PetID)
	if err != nil {
		return err
	}
	if p.Adopted {
		return violation(r.Name(), "pet has already been adopted")
	}
	return nil
}

// PetInProgress refuses a pet that already has a request awaiting
// evaluation, whoever the tutor is.
type PetInProgress struct {
	Adoptions AdoptionFinder
}

func (PetInProgress) Name() string { return RulePetInProgress }

func (r PetInProgress) Validate(ctx context.Context, c Candidate) error {
	items, err := r.Adoptions.FindAdoptionsByPetAndStatus(ctx, c.PetID, domain.StatusAwaitingEvaluation)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return violation(r.Name(), "pet is already awaiting evaluation in another adoption request")
	}
	return nil
}

// TutorPending refuses a tutor that already has a request awaiting
// evaluation for any pet.
type TutorPending struct {
	Adoptions AdoptionFinder
}

func (TutorPending) Name() string { return RuleTutorPending }

func (r TutorPending) Validate(ctx context.Context, c Candidate) error {
	items, err := r.Adoptions.FindAdoptionsByTutorAndStatus(ctx, c.TutorID, domain.StatusAwaitingEvaluation)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return violation(r.Name(), "tutor already has another adoption request awaiting evaluation")
	}
	return nil
}

// TutorApprovedLimit refuses a tutor holding Limit or more approved
// adoptions.
type TutorApprovedLimit struct {
	Adoptions AdoptionFinder
	Limit     int
}

func (TutorApprovedLimit) Name() string { return RuleTutorApprovedLimit }

func (r TutorApprovedLimit) Validate(ctx context.Context, c Candidate) error {
	limit := r.Limit
	if limit <= 0 {
		limit = MaxApprovedAdoptions
	}
	items, err := r.Adoptions.FindAdoptionsByTutorAndStatus(ctx, c.TutorID, domain.StatusApproved)
	if err != nil {
		return err
	}
	if len(items) >= limit {
		return violation(r.Name(), fmt.Sprintf("tutor reached the maximum of %d approved adoptions", limit))
	}
	return nil
}

package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"adopet/internal/admission"
	"adopet/internal/config"
	"adopet/internal/domain"
	"adopet/internal/notify"
	"adopet/internal/repo"
	"adopet/internal/scoring"
)

// conflictReason is reported when a concurrent writer won the race for a
// pet or tutor and the rules no longer explain why.
const conflictReason = "another adoption request for this pet or tutor was registered concurrently"

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Rules  *admission.Chain
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string

	locks *keyedLocks
}

func New(db *sql.DB, cfg *config.Config, logger *zap.Logger) Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := repo.Repo{DB: db}
	var disabled []string
	if cfg != nil {
		disabled = cfg.Admission.DisabledRules
	}
	return Engine{
		DB:     db,
		Repo:   r,
		Rules:  admission.Default(r, disabled...),
		Logger: logger,
		Now:    time.Now,
		NewID:  uuid.NewString,
		locks:  newKeyedLocks(),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e Engine) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

func (e Engine) outbox() notify.Outbox {
	return notify.Outbox{Repo: e.Repo, Now: e.now}
}

func (e Engine) rules() *admission.Chain {
	if e.Rules != nil {
		return e.Rules
	}
	return admission.Default(e.Repo)
}

// SolicitOptions are parameters for requesting an adoption.
type SolicitOptions struct {
	PetID   string
	TutorID string
	Reason  string
}

// Solicit admits a new adoption request when every eligibility rule passes.
// Nothing is written when a rule fails.
func (e Engine) Solicit(ctx context.Context, opts SolicitOptions) (domain.Adoption, error) {
	opts.PetID = strings.TrimSpace(opts.PetID)
	opts.TutorID = strings.TrimSpace(opts.TutorID)
	opts.Reason = strings.TrimSpace(opts.Reason)
	var missing []string
	if opts.PetID == "" {
		missing = append(missing, "pet id is required")
	}
	if opts.TutorID == "" {
		missing = append(missing, "tutor id is required")
	}
	if opts.Reason == "" {
		missing = append(missing, "reason is required")
	}
	if len(missing) > 0 {
		return domain.Adoption{}, domain.NewValidationError(missing...)
	}

	pet, err := e.Repo.GetPet(ctx, opts.PetID)
	if err != nil {
		return domain.Adoption{}, fmt.Errorf("pet %s: %w", opts.PetID, err)
	}
	tutor, err := e.Repo.GetTutor(ctx, opts.TutorID)
	if err != nil {
		return domain.Adoption{}, fmt.Errorf("tutor %s: %w", opts.TutorID, err)
	}
	shelter, err := e.Repo.GetShelter(ctx, pet.ShelterID)
	if err != nil {
		return domain.Adoption{}, fmt.Errorf("shelter %s: %w", pet.ShelterID, err)
	}

	unlock := e.locks.Lock("pet:"+pet.ID, "tutor:"+tutor.ID)
	defer unlock()

	cand := admission.Candidate{PetID: pet.ID, TutorID: tutor.ID, Reason: opts.Reason}
	if err := e.rules().Run(ctx, cand); err != nil {
		return domain.Adoption{}, err
	}

	a := domain.NewAdoption(e.newID(), pet.ID, tutor.ID, opts.Reason, e.now())
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Adoption{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAdoption(ctx, tx, a); err != nil {
		if repo.IsUniqueViolation(err) {
			_ = tx.Rollback()
			return domain.Adoption{}, e.conflict(ctx, cand)
		}
		return domain.Adoption{}, fmt.Errorf("insert adoption: %w", err)
	}
	if _, err := e.outbox().Enqueue(ctx, tx, notify.Requested(notify.Parties{Adoption: a, Pet: pet, Tutor: tutor, Shelter: shelter})); err != nil {
		return domain.Adoption{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Adoption{}, err
	}
	e.logger().Info("adoption requested",
		zap.String("adoption_id", a.ID),
		zap.String("pet_id", a.PetID),
		zap.String("tutor_id", a.TutorID))
	return a, nil
}

// conflict explains a unique index failure by re-running the rules against
// the state the other writer committed.
func (e Engine) conflict(ctx context.Context, cand admission.Candidate) error {
	if err := e.rules().Run(ctx, cand); err != nil {
		return err
	}
	return domain.NewValidationError(conflictReason)
}

// Approve moves an awaiting request to approved and marks its pet adopted.
func (e Engine) Approve(ctx context.Context, id string) (domain.Adoption, error) {
	return e.evaluate(ctx, id, func(a *domain.Adoption) error {
		return a.Approve(e.now())
	}, notify.Approved)
}

// Reject moves an awaiting request to rejected. An empty justification is
// refused before the request is looked up.
func (e Engine) Reject(ctx context.Context, id, justification string) (domain.Adoption, error) {
	if strings.TrimSpace(justification) == "" {
		return domain.Adoption{}, domain.NewValidationError("justification is required to reject an adoption")
	}
	return e.evaluate(ctx, id, func(a *domain.Adoption) error {
		return a.Reject(justification, e.now())
	}, notify.Rejected)
}

func (e Engine) evaluate(ctx context.Context, id string, transition func(*domain.Adoption) error, message func(notify.Parties) domain.Notification) (domain.Adoption, error) {
	a, err := e.Repo.GetAdoption(ctx, id)
	if err != nil {
		return domain.Adoption{}, fmt.Errorf("adoption %s: %w", id, err)
	}
	from := a.Status
	if err := transition(&a); err != nil {
		return domain.Adoption{}, err
	}
	parties, err := e.parties(ctx, a)
	if err != nil {
		return domain.Adoption{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Adoption{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.TransitionAdoption(ctx, tx, a, from); err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			return domain.Adoption{}, fmt.Errorf("%w: adoption %s was evaluated concurrently", domain.ErrIllegalTransition, a.ID)
		}
		return domain.Adoption{}, fmt.Errorf("update adoption: %w", err)
	}
	if a.Status == domain.StatusApproved {
		if err := e.Repo.MarkPetAdopted(ctx, tx, a.PetID); err != nil {
			return domain.Adoption{}, fmt.Errorf("mark pet adopted: %w", err)
		}
		parties.Pet.Adopted = true
	}
	if _, err := e.outbox().Enqueue(ctx, tx, message(parties)); err != nil {
		return domain.Adoption{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Adoption{}, err
	}
	e.logger().Info("adoption evaluated",
		zap.String("adoption_id", a.ID),
		zap.String("status", string(a.Status)))
	return a, nil
}

func (e Engine) parties(ctx context.Context, a domain.Adoption) (notify.Parties, error) {
	p := notify.Parties{Adoption: a}
	var err error
	if p.Pet, err = e.Repo.GetPet(ctx, a.PetID); err != nil {
		return p, fmt.Errorf("pet %s: %w", a.PetID, err)
	}
	if p.Tutor, err = e.Repo.GetTutor(ctx, a.TutorID); err != nil {
		return p, fmt.Errorf("tutor %s: %w", a.TutorID, err)
	}
	if p.Shelter, err = e.Repo.GetShelter(ctx, p.Pet.ShelterID); err != nil {
		return p, fmt.Errorf("shelter %s: %w", p.Pet.ShelterID, err)
	}
	return p, nil
}

func (e Engine) GetAdoption(ctx context.Context, id string) (domain.Adoption, error) {
	a, err := e.Repo.GetAdoption(ctx, id)
	if err != nil {
		return domain.Adoption{}, fmt.Errorf("adoption %s: %w", id, err)
	}
	return a, nil
}

func (e Engine) ListAdoptions(ctx context.Context, f repo.AdoptionFilters) ([]domain.Adoption, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown status %s", f.Status))
	}
	return e.Repo.ListAdoptions(ctx, f)
}

// PetProbability scores how likely a pet is to be adopted.
func (e Engine) PetProbability(ctx context.Context, petID string) (domain.Pet, domain.Probability, error) {
	pet, err := e.Repo.GetPet(ctx, petID)
	if err != nil {
		return domain.Pet{}, "", fmt.Errorf("pet %s: %w", petID, err)
	}
	return pet, scoring.Score(pet), nil
}

func (e Engine) ListNotifications(ctx context.Context, adoptionID string) ([]domain.Notification, error) {
	return e.Repo.ListNotifications(ctx, adoptionID)
}

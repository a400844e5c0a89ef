package engine

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"adopet/internal/domain"
	"adopet/internal/repo"
)

type ShelterOptions struct {
	Name  string
	Phone string
	Email string
}

type PetOptions struct {
	Type   domain.PetType
	Name   string
	Breed  string
	Age    int
	Color  string
	Weight float64
}

type TutorOptions struct {
	Name  string
	Phone string
	Email string
}

func contactReasons(name, phone, email string) []string {
	var reasons []string
	if name == "" {
		reasons = append(reasons, "name is required")
	}
	if phone == "" {
		reasons = append(reasons, "phone is required")
	}
	if email == "" {
		reasons = append(reasons, "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		reasons = append(reasons, fmt.Sprintf("email %s is not valid", email))
	}
	return reasons
}

func (e Engine) RegisterShelter(ctx context.Context, opts ShelterOptions) (domain.Shelter, error) {
	s := domain.Shelter{
		ID:        e.newID(),
		Name:      strings.TrimSpace(opts.Name),
		Phone:     strings.TrimSpace(opts.Phone),
		Email:     strings.TrimSpace(opts.Email),
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if reasons := contactReasons(s.Name, s.Phone, s.Email); len(reasons) > 0 {
		return domain.Shelter{}, domain.NewValidationError(reasons...)
	}
	exists, err := e.Repo.ShelterExists(ctx, s.Name, s.Phone, s.Email)
	if err != nil {
		return domain.Shelter{}, err
	}
	if exists {
		return domain.Shelter{}, domain.NewValidationError("shelter data already registered")
	}
	if err := e.Repo.InsertShelter(ctx, nil, s); err != nil {
		if repo.IsUniqueViolation(err) {
			return domain.Shelter{}, domain.NewValidationError("shelter data already registered")
		}
		return domain.Shelter{}, fmt.Errorf("insert shelter: %w", err)
	}
	e.logger().Info("shelter registered", zap.String("shelter_id", s.ID), zap.String("name", s.Name))
	return s, nil
}

func (e Engine) ListShelters(ctx context.Context) ([]domain.Shelter, error) {
	return e.Repo.ListShelters(ctx)
}

// LoadShelter resolves ref as a shelter id, falling back to its name.
func (e Engine) LoadShelter(ctx context.Context, ref string) (domain.Shelter, error) {
	ref = strings.TrimSpace(ref)
	s, err := e.Repo.GetShelter(ctx, ref)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.Shelter{}, err
	}
	s, err = e.Repo.GetShelterByName(ctx, ref)
	if err != nil {
		return domain.Shelter{}, fmt.Errorf("shelter %s: %w", ref, err)
	}
	return s, nil
}

func (e Engine) RegisterPet(ctx context.Context, shelterRef string, opts PetOptions) (domain.Pet, error) {
	shelter, err := e.LoadShelter(ctx, shelterRef)
	if err != nil {
		return domain.Pet{}, err
	}
	p := domain.Pet{
		ID:        e.newID(),
		ShelterID: shelter.ID,
		Type:      domain.PetType(strings.ToLower(strings.TrimSpace(string(opts.Type)))),
		Name:      strings.TrimSpace(opts.Name),
		Breed:     strings.TrimSpace(opts.Breed),
		Age:       opts.Age,
		Color:     strings.TrimSpace(opts.Color),
		Weight:    opts.Weight,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	var reasons []string
	if p.Type != domain.PetTypeDog && p.Type != domain.PetTypeCat {
		reasons = append(reasons, "type must be dog or cat")
	}
	if p.Name == "" {
		reasons = append(reasons, "name is required")
	}
	if p.Age < 0 {
		reasons = append(reasons, "age must not be negative")
	}
	if p.Weight <= 0 {
		reasons = append(reasons, "weight must be positive")
	}
	if len(reasons) > 0 {
		return domain.Pet{}, domain.NewValidationError(reasons...)
	}
	if err := e.Repo.InsertPet(ctx, nil, p); err != nil {
		return domain.Pet{}, fmt.Errorf("insert pet: %w", err)
	}
	e.logger().Info("pet registered", zap.String("pet_id", p.ID), zap.String("shelter_id", p.ShelterID))
	return p, nil
}

func (e Engine) ListShelterPets(ctx context.Context, shelterRef string) ([]domain.Pet, error) {
	shelter, err := e.LoadShelter(ctx, shelterRef)
	if err != nil {
		return nil, err
	}
	return e.Repo.ListPetsByShelter(ctx, shelter.ID)
}

// ListAvailablePets returns every pet not adopted yet.
func (e Engine) ListAvailablePets(ctx context.Context) ([]domain.Pet, error) {
	return e.Repo.ListAvailablePets(ctx)
}

func (e Engine) RegisterTutor(ctx context.Context, opts TutorOptions) (domain.Tutor, error) {
	now := e.now().UTC().Format(time.RFC3339)
	t := domain.Tutor{
		ID:        e.newID(),
		Name:      strings.TrimSpace(opts.Name),
		Phone:     strings.TrimSpace(opts.Phone),
		Email:     strings.TrimSpace(opts.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.checkTutor(ctx, t, ""); err != nil {
		return domain.Tutor{}, err
	}
	if err := e.Repo.InsertTutor(ctx, nil, t); err != nil {
		if repo.IsUniqueViolation(err) {
			return domain.Tutor{}, domain.NewValidationError("tutor data already registered")
		}
		return domain.Tutor{}, fmt.Errorf("insert tutor: %w", err)
	}
	e.logger().Info("tutor registered", zap.String("tutor_id", t.ID))
	return t, nil
}

// UpdateTutor replaces the contact data of an existing tutor.
func (e Engine) UpdateTutor(ctx context.Context, id string, opts TutorOptions) (domain.Tutor, error) {
	t, err := e.Repo.GetTutor(ctx, id)
	if err != nil {
		return domain.Tutor{}, fmt.Errorf("tutor %s: %w", id, err)
	}
	t.Name = strings.TrimSpace(opts.Name)
	t.Phone = strings.TrimSpace(opts.Phone)
	t.Email = strings.TrimSpace(opts.Email)
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.checkTutor(ctx, t, t.ID); err != nil {
		return domain.Tutor{}, err
	}
	if err := e.Repo.UpdateTutor(ctx, nil, t); err != nil {
		if repo.IsUniqueViolation(err) {
			return domain.Tutor{}, domain.NewValidationError("tutor data already registered")
		}
		return domain.Tutor{}, fmt.Errorf("update tutor %s: %w", id, err)
	}
	return t, nil
}

func (e Engine) checkTutor(ctx context.Context, t domain.Tutor, excludeID string) error {
	if reasons := contactReasons(t.Name, t.Phone, t.Email); len(reasons) > 0 {
		return domain.NewValidationError(reasons...)
	}
	exists, err := e.Repo.TutorExists(ctx, t.Phone, t.Email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewValidationError("tutor data already registered")
	}
	return nil
}

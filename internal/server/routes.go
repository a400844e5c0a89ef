package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"adopet/internal/domain"
	"adopet/internal/engine"
	"adopet/internal/repo"
)

var writeErrors = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

type adoptionBody struct {
	Body domain.Adoption `json:"body"`
}

func registerShelters(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-shelter",
		Method:        http.MethodPost,
		Path:          "/shelters",
		Summary:       "Register shelter",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateShelterRequest `json:"body"`
	}) (*struct {
		Body domain.Shelter `json:"body"`
	}, error) {
		s, err := e.RegisterShelter(ctx, engine.ShelterOptions{Name: input.Body.Name, Phone: input.Body.Phone, Email: input.Body.Email})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Shelter `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-shelters",
		Method:      http.MethodGet,
		Path:        "/shelters",
		Summary:     "List shelters",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Shelter `json:"body"`
	}, error) {
		items, err := e.ListShelters(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Shelter `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-shelter-pets",
		Method:      http.MethodGet,
		Path:        "/shelters/{ref}/pets",
		Summary:     "List pets of a shelter",
		Description: "ref is the shelter id or its name.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Ref string `path:"ref"`
	}) (*struct {
		Body []domain.Pet `json:"body"`
	}, error) {
		items, err := e.ListShelterPets(ctx, input.Ref)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Pet `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-pet",
		Method:        http.MethodPost,
		Path:          "/shelters/{ref}/pets",
		Summary:       "Register pet",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Ref  string           `path:"ref"`
		Body CreatePetRequest `json:"body"`
	}) (*struct {
		Body domain.Pet `json:"body"`
	}, error) {
		p, err := e.RegisterPet(ctx, input.Ref, engine.PetOptions{
			Type:   domain.PetType(input.Body.Type),
			Name:   input.Body.Name,
			Breed:  input.Body.Breed,
			Age:    input.Body.Age,
			Color:  input.Body.Color,
			Weight: input.Body.Weight,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Pet `json:"body"`
		}{Body: p}, nil
	})
}

func registerPets(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-available-pets",
		Method:      http.MethodGet,
		Path:        "/pets",
		Summary:     "List pets not adopted yet",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Pet `json:"body"`
	}, error) {
		items, err := e.ListAvailablePets(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Pet `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pet-probability",
		Method:      http.MethodGet,
		Path:        "/pets/{id}/probability",
		Summary:     "Estimate adoption probability",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body ProbabilityResponse `json:"body"`
	}, error) {
		p, score, err := e.PetProbability(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProbabilityResponse `json:"body"`
		}{Body: ProbabilityResponse{PetID: p.ID, Name: p.Name, Age: p.Age, Weight: p.Weight, Probability: score}}, nil
	})
}

func registerTutors(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-tutor",
		Method:        http.MethodPost,
		Path:          "/tutors",
		Summary:       "Register tutor",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body TutorRequest `json:"body"`
	}) (*struct {
		Body domain.Tutor `json:"body"`
	}, error) {
		t, err := e.RegisterTutor(ctx, engine.TutorOptions{Name: input.Body.Name, Phone: input.Body.Phone, Email: input.Body.Email})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Tutor `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tutor",
		Method:      http.MethodPut,
		Path:        "/tutors/{id}",
		Summary:     "Update tutor",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string       `path:"id"`
		Body TutorRequest `json:"body"`
	}) (*struct {
		Body domain.Tutor `json:"body"`
	}, error) {
		t, err := e.UpdateTutor(ctx, input.ID, engine.TutorOptions{Name: input.Body.Name, Phone: input.Body.Phone, Email: input.Body.Email})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Tutor `json:"body"`
		}{Body: t}, nil
	})
}

func registerAdoptions(api huma.API, e engine.Engine, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID:   "solicit-adoption",
		Method:        http.MethodPost,
		Path:          "/adoptions",
		Summary:       "Request an adoption",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body SolicitAdoptionRequest `json:"body"`
	}) (*adoptionBody, error) {
		a, err := e.Solicit(ctx, engine.SolicitOptions{PetID: input.Body.PetID, TutorID: input.Body.TutorID, Reason: input.Body.Reason})
		if err != nil {
			return nil, handleError(err)
		}
		return &adoptionBody{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-adoptions",
		Method:      http.MethodGet,
		Path:        "/adoptions",
		Summary:     "List adoption requests",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status  string `query:"status" doc:"awaiting_evaluation, approved or rejected"`
		PetID   string `query:"pet_id"`
		TutorID string `query:"tutor_id"`
		Limit   int    `query:"limit"`
	}) (*struct {
		Body []domain.Adoption `json:"body"`
	}, error) {
		status := domain.AdoptionStatus(strings.TrimSpace(input.Status))
		if status != "" && !status.Valid() {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid status "+input.Status, nil)
		}
		items, err := e.ListAdoptions(ctx, repo.AdoptionFilters{
			Status:  status,
			PetID:   input.PetID,
			TutorID: input.TutorID,
			Limit:   normalizeLimit(input.Limit),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Adoption `json:"body"`
		}{Body: nonNil(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-adoption",
		Method:      http.MethodGet,
		Path:        "/adoptions/{id}",
		Summary:     "Get adoption request",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*adoptionBody, error) {
		a, err := e.GetAdoption(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &adoptionBody{Body: a}, nil
	})

	evalErrors := []int{
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusUnprocessableEntity,
	}
	huma.Register(api, huma.Operation{
		OperationID: "approve-adoption",
		Method:      http.MethodPut,
		Path:        "/adoptions/{id}/approve",
		Summary:     "Approve adoption request",
		Errors:      evalErrors,
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*adoptionBody, error) {
		if err := requirePermission(ctx, authCfg, PermissionEvaluate); err != nil {
			return nil, handleError(err)
		}
		a, err := e.Approve(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &adoptionBody{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-adoption",
		Method:      http.MethodPut,
		Path:        "/adoptions/{id}/reject",
		Summary:     "Reject adoption request",
		Errors:      evalErrors,
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body RejectAdoptionRequest `json:"body"`
	}) (*adoptionBody, error) {
		if err := requirePermission(ctx, authCfg, PermissionEvaluate); err != nil {
			return nil, handleError(err)
		}
		a, err := e.Reject(ctx, input.ID, input.Body.Justification)
		if err != nil {
			return nil, handleError(err)
		}
		return &adoptionBody{Body: a}, nil
	})
}

package server

import (
	"adopet/internal/domain"
)

// Request payloads

type CreateShelterRequest struct {
	Name  string `json:"name" minLength:"1"`
	Phone string `json:"phone" minLength:"1"`
	Email string `json:"email" format:"email"`
}

type CreatePetRequest struct {
	Type   string  `json:"type" enum:"dog,cat"`
	Name   string  `json:"name" minLength:"1"`
	Breed  string  `json:"breed,omitempty"`
	Age    int     `json:"age" minimum:"0"`
	Color  string  `json:"color,omitempty"`
	Weight float64 `json:"weight" exclusiveMinimum:"0"`
}

type TutorRequest struct {
	Name  string `json:"name" minLength:"1"`
	Phone string `json:"phone" minLength:"1"`
	Email string `json:"email" format:"email"`
}

type SolicitAdoptionRequest struct {
	PetID   string `json:"pet_id" minLength:"1"`
	TutorID string `json:"tutor_id" minLength:"1"`
	Reason  string `json:"reason"`
}

type RejectAdoptionRequest struct {
	Justification string `json:"justification"`
}

type DevLoginRequest struct {
	ActorID     string   `json:"actor_id"`
	Permissions []string `json:"permissions,omitempty"`
}

// Responses

type DevLoginResponse struct {
	Token string `json:"token"`
}

type ProbabilityResponse struct {
	PetID       string             `json:"pet_id"`
	Name        string             `json:"name"`
	Age         int                `json:"age"`
	Weight      float64            `json:"weight"`
	Probability domain.Probability `json:"probability" enum:"low,medium,high"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

type AdoptionStatus string

const (
	StatusAwaitingEvaluation AdoptionStatus = "awaiting_evaluation"
	StatusApproved           AdoptionStatus = "approved"
	StatusRejected           AdoptionStatus = "rejected"
)

// Terminal reports whether no transition leaves s.
func (s AdoptionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s AdoptionStatus) Valid() bool {
	switch s {
	case StatusAwaitingEvaluation, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Adoption struct {
	ID            string         `json:"id"`
	PetID         string         `json:"pet_id"`
	TutorID       string         `json:"tutor_id"`
	Reason        string         `json:"reason"`
	Status        AdoptionStatus `json:"status" enum:"awaiting_evaluation,approved,rejected"`
	Justification string         `json:"justification,omitempty"`
	CreatedAt     string         `json:"created_at" format:"date-time"`
	EvaluatedAt   *string        `json:"evaluated_at,omitempty" format:"date-time"`
}

// NewAdoption builds a request in its initial state.
func NewAdoption(id, petID, tutorID, reason string, now time.Time) Adoption {
	return Adoption{
		ID:        id,
		PetID:     petID,
		TutorID:   tutorID,
		Reason:    reason,
		Status:    StatusAwaitingEvaluation,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}

// Approve moves an awaiting request to approved.
func (a *Adoption) Approve(now time.Time) error {
	if err := a.ensurePending(StatusApproved); err != nil {
		return err
	}
	a.Status = StatusApproved
	a.stamp(now)
	return nil
}

// Reject moves an awaiting request to rejected and records why. The
// justification is checked before the state so an empty one never reports
// a transition problem.
func (a *Adoption) Reject(justification string, now time.Time) error {
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return NewValidationError("justification is required to reject an adoption")
	}
	if err := a.ensurePending(StatusRejected); err != nil {
		return err
	}
	a.Status = StatusRejected
	a.Justification = justification
	a.stamp(now)
	return nil
}

func (a *Adoption) ensurePending(to AdoptionStatus) error {
	if a.Status != StatusAwaitingEvaluation {
		return fmt.Errorf("%w: adoption %s is %s, cannot become %s", ErrIllegalTransition, a.ID, a.Status, to)
	}
	return nil
}

func (a *Adoption) stamp(now time.Time) {
	ts := now.UTC().Format(time.RFC3339)
	a.EvaluatedAt = &ts
}

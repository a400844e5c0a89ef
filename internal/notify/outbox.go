// Package notify decides what adopters and shelters are told about an
// adoption and delivers it.
//
// Notifications are written to an outbox table in the same transaction as
// the state change that caused them. A Dispatcher delivers them later, so a
// delivery failure never undoes an approval or rejection.
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"adopet/internal/domain"
	"adopet/internal/repo"
)

type Outbox struct {
	Repo repo.Repo
	Now  func() time.Time
}

// Enqueue stores n inside tx and returns it with its id and timestamp set.
func (o Outbox) Enqueue(ctx context.Context, tx *sql.Tx, n domain.Notification) (domain.Notification, error) {
	if o.Now == nil {
		o.Now = time.Now
	}
	n.CreatedAt = o.Now().UTC().Format(time.RFC3339)
	id, err := o.Repo.InsertNotification(ctx, tx, n)
	if err != nil {
		return n, fmt.Errorf("enqueue %s notification: %w", n.Kind, err)
	}
	n.ID = id
	return n, nil
}

// Subject data shared by every message.
type Parties struct {
	Adoption domain.Adoption
	Pet      domain.Pet
	Tutor    domain.Tutor
	Shelter  domain.Shelter
}

func requestedOn(a domain.Adoption) string {
	t, err := time.Parse(time.RFC3339, a.CreatedAt)
	if err != nil {
		return a.CreatedAt
	}
	return t.Format("2006-01-02")
}

// Requested tells the shelter a new request is waiting for evaluation.
func Requested(p Parties) domain.Notification {
	return domain.Notification{
		Kind:         domain.NotificationRequested,
		AdoptionID:   p.Adoption.ID,
		ShelterID:    p.Shelter.ID,
		ShelterEmail: p.Shelter.Email,
		Subject:      "Adoption requested",
		Body: fmt.Sprintf("Hello %s! An adoption request was registered today for the pet %s. Please evaluate it for approval or rejection.",
			p.Shelter.Name, p.Pet.Name),
	}
}

// Approved tells both tutor and shelter the request was approved.
func Approved(p Parties) domain.Notification {
	return domain.Notification{
		Kind:         domain.NotificationApproved,
		AdoptionID:   p.Adoption.ID,
		TutorID:      p.Tutor.ID,
		TutorEmail:   p.Tutor.Email,
		ShelterID:    p.Shelter.ID,
		ShelterEmail: p.Shelter.Email,
		Subject:      "Adoption approved",
		Body: fmt.Sprintf("Congratulations %s! Your adoption of the pet %s, requested on %s, was approved. Please contact the shelter %s to schedule the pickup.",
			p.Tutor.Name, p.Pet.Name, requestedOn(p.Adoption), p.Shelter.Name),
	}
}

// Rejected tells both tutor and shelter the request was rejected and why.
func Rejected(p Parties) domain.Notification {
	return domain.Notification{
		Kind:         domain.NotificationRejected,
		AdoptionID:   p.Adoption.ID,
		TutorID:      p.Tutor.ID,
		TutorEmail:   p.Tutor.Email,
		ShelterID:    p.Shelter.ID,
		ShelterEmail: p.Shelter.Email,
		Subject:      "Adoption rejected",
		Body: fmt.Sprintf("Hello %s. Unfortunately your adoption of the pet %s, requested on %s, was rejected by the shelter %s with the following justification: %s",
			p.Tutor.Name, p.Pet.Name, requestedOn(p.Adoption), p.Shelter.Name, p.Adoption.Justification),
	}
}

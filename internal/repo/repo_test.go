package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adopet/internal/db"
	"adopet/internal/domain"
	"adopet/internal/migrate"
	"adopet/internal/repo"
)

const ts = "2024-01-01T00:00:00Z"

func newRepo(t *testing.T) (repo.Repo, context.Context) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	require.NoError(t, migrate.Migrate(ctx, conn))
	r := repo.Repo{DB: conn}

	require.NoError(t, r.InsertShelter(ctx, nil, domain.Shelter{ID: "s1", Name: "Happy Shelter", Phone: "85999999999", Email: "happy@example.com", CreatedAt: ts}))
	for _, id := range []string{"p1", "p2"} {
		require.NoError(t, r.InsertPet(ctx, nil, domain.Pet{ID: id, ShelterID: "s1", Type: domain.PetTypeCat, Name: id, Breed: "Siamese", Age: 4, Color: "grey", Weight: 4, CreatedAt: ts}))
	}
	for _, id := range []string{"t1", "t2"} {
		require.NoError(t, r.InsertTutor(ctx, nil, domain.Tutor{ID: id, Name: id, Phone: "phone-" + id, Email: id + "@example.com", CreatedAt: ts, UpdatedAt: ts}))
	}
	return r, ctx
}

func TestPendingUniquenessPerPetAndTutor(t *testing.T) {
	r, ctx := newRepo(t)
	require.NoError(t, r.InsertAdoption(ctx, nil, domain.Adoption{ID: "a1", PetID: "p1", TutorID: "t1", Reason: "r", Status: domain.StatusAwaitingEvaluation, CreatedAt: ts}))

	err := r.InsertAdoption(ctx, nil, domain.Adoption{ID: "a2", PetID: "p1", TutorID: "t2", Reason: "r", Status: domain.StatusAwaitingEvaluation, CreatedAt: ts})
	assert.True(t, repo.IsUniqueViolation(err), "second pending request for the same pet: %v", err)

	err = r.InsertAdoption(ctx, nil, domain.Adoption{ID: "a3", PetID: "p2", TutorID: "t1", Reason: "r", Status: domain.StatusAwaitingEvaluation, CreatedAt: ts})
	assert.True(t, repo.IsUniqueViolation(err), "second pending request for the same tutor: %v", err)

	require.NoError(t, r.InsertAdoption(ctx, nil, domain.Adoption{ID: "a4", PetID: "p2", TutorID: "t2", Reason: "r", Status: domain.StatusAwaitingEvaluation, CreatedAt: ts}))
}

func TestTransitionAdoptionCompareAndSet(t *testing.T) {
	r, ctx := newRepo(t)
	a := domain.NewAdoption("a1", "p1", "t1", "reason", mustTime(t))
	require.NoError(t, r.InsertAdoption(ctx, nil, a))

	approved := a
	require.NoError(t, approved.Approve(mustTime(t)))
	require.NoError(t, r.TransitionAdoption(ctx, nil, approved, domain.StatusAwaitingEvaluation))

	rejected := a
	require.NoError(t, rejected.Reject("late", mustTime(t)))
	err := r.TransitionAdoption(ctx, nil, rejected, domain.StatusAwaitingEvaluation)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	stored, err := r.GetAdoption(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.Empty(t, stored.Justification)
	require.NotNil(t, stored.EvaluatedAt)

	missing := approved
	missing.ID = "nope"
	assert.ErrorIs(t, r.TransitionAdoption(ctx, nil, missing, domain.StatusAwaitingEvaluation), repo.ErrNotFound)
}

func TestFindAdoptionsByStatus(t *testing.T) {
	r, ctx := newRepo(t)
	require.NoError(t, r.InsertAdoption(ctx, nil, domain.Adoption{ID: "a1", PetID: "p1", TutorID: "t1", Reason: "r", Status: domain.StatusApproved, CreatedAt: ts}))
	require.NoError(t, r.InsertAdoption(ctx, nil, domain.Adoption{ID: "a2", PetID: "p2", TutorID: "t1", Reason: "r", Status: domain.StatusRejected, Justification: "no", CreatedAt: ts}))
	require.NoError(t, r.InsertAdoption(ctx, nil, domain.Adoption{ID: "a3", PetID: "p2", TutorID: "t2", Reason: "r", Status: domain.StatusAwaitingEvaluation, CreatedAt: ts}))

	items, err := r.FindAdoptionsByTutorAndStatus(ctx, "t1", domain.StatusApproved)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a1", items[0].ID)

	items, err = r.FindAdoptionsByPetAndStatus(ctx, "p2", domain.StatusAwaitingEvaluation)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "t2", items[0].TutorID)

	all, err := r.ListAdoptions(ctx, repo.AdoptionFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "no", all[1].Justification)
}

func TestRejectedRowRequiresJustification(t *testing.T) {
	r, ctx := newRepo(t)
	err := r.InsertAdoption(ctx, nil, domain.Adoption{ID: "a1", PetID: "p1", TutorID: "t1", Reason: "r", Status: domain.StatusRejected, CreatedAt: ts})
	assert.Error(t, err)
}

func TestNotificationQueue(t *testing.T) {
	r, ctx := newRepo(t)
	require.NoError(t, r.InsertAdoption(ctx, nil, domain.Adoption{ID: "a1", PetID: "p1", TutorID: "t1", Reason: "r", Status: domain.StatusAwaitingEvaluation, CreatedAt: ts}))
	id1, err := r.InsertNotification(ctx, nil, domain.Notification{Kind: domain.NotificationRequested, AdoptionID: "a1", ShelterID: "s1", ShelterEmail: "happy@example.com", Subject: "s", Body: "b", CreatedAt: ts})
	require.NoError(t, err)
	id2, err := r.InsertNotification(ctx, nil, domain.Notification{Kind: domain.NotificationApproved, AdoptionID: "a1", TutorID: "t1", TutorEmail: "t1@example.com", ShelterID: "s1", ShelterEmail: "happy@example.com", Subject: "s", Body: "b", CreatedAt: ts})
	require.NoError(t, err)

	require.NoError(t, r.MarkNotificationDelivered(ctx, id1, ts))
	require.NoError(t, r.MarkNotificationFailed(ctx, id2, "smtp down"))

	pending, err := r.PendingNotifications(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id2, pending[0].ID)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "smtp down", pending[0].LastError)
	assert.Equal(t, "t1@example.com", pending[0].TutorEmail)

	pending, err = r.PendingNotifications(ctx, 10, 1)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAPIKeys(t *testing.T) {
	r, ctx := newRepo(t)
	hash := repo.HashAPIKey(" secret ")
	require.Equal(t, repo.HashAPIKey("secret"), hash)
	require.NoError(t, r.InsertAPIKey(ctx, nil, domain.APIKey{ID: "k1", ActorID: "staff", KeyHash: hash, Permissions: []string{"adoption.evaluate"}}))

	key, err := r.GetAPIKeyByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []string{"adoption.evaluate"}, key.Permissions)

	_, err = r.GetAPIKeyByHash(ctx, repo.HashAPIKey("other"))
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, r.DeleteAPIKey(ctx, "k1"))
	assert.ErrorIs(t, r.DeleteAPIKey(ctx, "k1"), repo.ErrNotFound)
}

func mustTime(t *testing.T) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, ts)
	require.NoError(t, err)
	return v
}

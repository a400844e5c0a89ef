package adopetsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolicitAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v0/adoptions":
			assert.Equal(t, "k1", r.Header.Get("X-Api-Key"))
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["pet_id"] == "taken" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"error":{"code":"validation_failed","message":"validation failed","details":{"reasons":["pet has already been adopted"]}}}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(Adoption{ID: "a1", PetID: body["pet_id"], TutorID: body["tutor_id"], Status: "awaiting_evaluation"})
		case r.Method == http.MethodPut && r.URL.Path == "/v0/adoptions/a1/approve":
			json.NewEncoder(w).Encode(Adoption{ID: "a1", Status: "approved"})
		case r.Method == http.MethodGet && r.URL.Path == "/v0/adoptions":
			assert.Equal(t, "approved", r.URL.Query().Get("status"))
			json.NewEncoder(w).Encode([]Adoption{{ID: "a1", Status: "approved"}})
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"not_found","message":"not found"}}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.APIKey = "k1"
	ctx := context.Background()

	a, err := c.Solicit(ctx, "p1", "t1", "yard")
	require.NoError(t, err)
	assert.Equal(t, "awaiting_evaluation", a.Status)

	_, err = c.Solicit(ctx, "taken", "t1", "yard")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, []string{"pet has already been adopted"}, apiErr.Reasons)

	a, err = c.Approve(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "approved", a.Status)

	list, err := c.ListAdoptions(ctx, "approved", "", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = c.GetAdoption(ctx, "missing")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "not_found", apiErr.Code)
}

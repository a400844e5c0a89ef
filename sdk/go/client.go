package adopetsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Adopet HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

type Pet struct {
	ID        string  `json:"id"`
	ShelterID string  `json:"shelter_id"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Breed     string  `json:"breed"`
	Age       int     `json:"age"`
	Color     string  `json:"color"`
	Weight    float64 `json:"weight"`
	Adopted   bool    `json:"adopted"`
}

// Adoption is an adoption request as returned by the API.
type Adoption struct {
	ID            string  `json:"id"`
	PetID         string  `json:"pet_id"`
	TutorID       string  `json:"tutor_id"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	Justification string  `json:"justification,omitempty"`
	CreatedAt     string  `json:"created_at"`
	EvaluatedAt   *string `json:"evaluated_at,omitempty"`
}

type Probability struct {
	PetID       string  `json:"pet_id"`
	Name        string  `json:"name"`
	Age         int     `json:"age"`
	Weight      float64 `json:"weight"`
	Probability string  `json:"probability"`
}

// APIError wraps non-2xx responses. Reasons is set when the request was
// refused by the eligibility rules.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Reasons    []string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Solicit requests the adoption of a pet.
func (c *Client) Solicit(ctx context.Context, petID, tutorID, reason string) (Adoption, error) {
	body := map[string]any{
		"pet_id":   petID,
		"tutor_id": tutorID,
		"reason":   reason,
	}
	var resp Adoption
	err := c.do(ctx, http.MethodPost, "adoptions", body, &resp)
	return resp, err
}

func (c *Client) Approve(ctx context.Context, adoptionID string) (Adoption, error) {
	var resp Adoption
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("adoptions/%s/approve", url.PathEscape(adoptionID)), nil, &resp)
	return resp, err
}

func (c *Client) Reject(ctx context.Context, adoptionID, justification string) (Adoption, error) {
	var resp Adoption
	body := map[string]any{"justification": justification}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("adoptions/%s/reject", url.PathEscape(adoptionID)), body, &resp)
	return resp, err
}

func (c *Client) GetAdoption(ctx context.Context, adoptionID string) (Adoption, error) {
	var resp Adoption
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("adoptions/%s", url.PathEscape(adoptionID)), nil, &resp)
	return resp, err
}

// ListAdoptions lists requests; empty filters are ignored.
func (c *Client) ListAdoptions(ctx context.Context, status, petID, tutorID string) ([]Adoption, error) {
	q := url.Values{}
	for k, v := range map[string]string{"status": status, "pet_id": petID, "tutor_id": tutorID} {
		if v != "" {
			q.Set(k, v)
		}
	}
	endpoint := "adoptions"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Adoption
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// AvailablePets lists pets not adopted yet.
func (c *Client) AvailablePets(ctx context.Context) ([]Pet, error) {
	var resp []Pet
	err := c.do(ctx, http.MethodGet, "pets", nil, &resp)
	return resp, err
}

func (c *Client) Probability(ctx context.Context, petID string) (Probability, error) {
	var resp Probability
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("pets/%s/probability", url.PathEscape(petID)), nil, &resp)
	return resp, err
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Reasons []string `json:"reasons"`
		} `json:"details"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env errorEnvelope
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Reasons = env.Error.Details.Reasons
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base
}

package domain

type PetType string

const (
	PetTypeDog PetType = "dog"
	PetTypeCat PetType = "cat"
)

type Shelter struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Pet struct {
	ID        string  `json:"id"`
	ShelterID string  `json:"shelter_id"`
	Type      PetType `json:"type" enum:"dog,cat"`
	Name      string  `json:"name"`
	Breed     string  `json:"breed"`
	Age       int     `json:"age"`
	Color     string  `json:"color"`
	Weight    float64 `json:"weight"`
	Adopted   bool    `json:"adopted"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

type Tutor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at" format:"date-time"`
	UpdatedAt string `json:"updated_at" format:"date-time"`
}

type Notification struct {
	ID           int64   `json:"id"`
	Kind         string  `json:"kind" enum:"adoption.requested,adoption.approved,adoption.rejected"`
	AdoptionID   string  `json:"adoption_id"`
	TutorID      string  `json:"tutor_id,omitempty"`
	TutorEmail   string  `json:"tutor_email,omitempty"`
	ShelterID    string  `json:"shelter_id"`
	ShelterEmail string  `json:"shelter_email"`
	Subject      string  `json:"subject"`
	Body         string  `json:"body"`
	Attempts     int     `json:"attempts"`
	LastError    string  `json:"last_error,omitempty"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
	DeliveredAt  *string `json:"delivered_at,omitempty" format:"date-time"`
}

const (
	NotificationRequested = "adoption.requested"
	NotificationApproved  = "adoption.approved"
	NotificationRejected  = "adoption.rejected"
)

type APIKey struct {
	ID          string   `json:"id"`
	ActorID     string   `json:"actor_id"`
	Name        string   `json:"name,omitempty"`
	KeyHash     string   `json:"key_hash"`
	Permissions []string `json:"permissions"`
	CreatedAt   string   `json:"created_at" format:"date-time"`
}

package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrEmptyEmail is returned when an owner is created without an email.
var ErrEmptyEmail = errors.New("email cannot be empty")

var emailValidator = validator.New()

// Owner is the person a job was submitted for. Owners are identified by a
// unique email and own any number of jobs; removing an owner removes its jobs.
type Owner struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewOwner creates an Owner for the given email address.
func NewOwner(email string) (*Owner, error) {
	owner := &Owner{
		ID:        uuid.New(),
		Email:     NormalizeEmail(email),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := owner.Validate(); err != nil {
		return nil, err
	}

	return owner, nil
}

// Validate checks if the Owner has valid data.
func (o *Owner) Validate() error {
	if o.ID == uuid.Nil {
		return ErrInvalidID
	}
	if o.Email == "" {
		return ErrEmptyEmail
	}
	return ValidateEmail(o.Email)
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail returns ErrInvalidEmail when email is not a well-formed address.
func ValidateEmail(email string) error {
	if err := emailValidator.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

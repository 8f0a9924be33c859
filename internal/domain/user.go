package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxUserNameLength is the longest accepted learner name, in characters.
const MaxUserNameLength = 50

// User is a learner profile held by the user registry.
type User struct {
	ID         string    `json:"id"         validate:"required"`
	Name       string    `json:"name"       validate:"required,max=50"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator instance used for domain and
// document validation.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NewUser creates a User with a fresh ID and both timestamps set to now.
// The name is trimmed before validation.
func NewUser(name string, now time.Time) (*User, error) {
	user := &User{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(name),
		CreatedAt:  now.UTC(),
		LastActive: now.UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks the user's fields. Errors wrap ErrValidation.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: user name cannot be empty", ErrValidation)
	}

	// validator's max counts runes, matching the form's maxLength.
	if err := Validator().Struct(u); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// Touch marks the user as active at now.
func (u *User) Touch(now time.Time) {
	u.LastActive = now.UTC()
}

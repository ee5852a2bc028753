package auth

import (
	"strings"

	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/users"
)

// Validator holds the checks run before a request leaves the client.
// The server stays the authority; these only catch input it would certainly reject.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateUserCredentials validates login credentials
func (v *Validator) ValidateUserCredentials(email, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return errors.Invalidf("password is required")
	}
	return nil
}

func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.Invalidf("email is required")
	}

	// Basic email format validation
	at := strings.Index(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return errors.Invalidf("invalid email format")
	}
	return nil
}

// ValidateProfile validates a registration payload
func (v *Validator) ValidateProfile(profile users.Profile) error {
	if strings.TrimSpace(profile.Name) == "" {
		return errors.Invalidf("name is required")
	}
	return v.ValidateUserCredentials(profile.Email, profile.Password)
}

// ValidateProfilePatch validates the fields present on a profile update
func (v *Validator) ValidateProfilePatch(patch users.ProfilePatch) error {
	if patch.IsEmpty() {
		return errors.Invalidf("nothing to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return errors.Invalidf("name cannot be blank")
	}
	if patch.Email != nil {
		if err := v.ValidateEmail(*patch.Email); err != nil {
			return err
		}
	}
	if patch.Password != nil && *patch.Password == "" {
		return errors.Invalidf("password cannot be blank")
	}
	return nil
}

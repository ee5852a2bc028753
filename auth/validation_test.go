package auth_test

import (
	"testing"

	"github.com/jrsteele09/go-storefront/auth"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateUserCredentials(t *testing.T) {
	v := auth.NewValidator()

	t.Run("valid credentials", func(t *testing.T) {
		err := v.ValidateUserCredentials("user@example.com", "password123")
		require.NoError(t, err)
	})

	t.Run("empty email", func(t *testing.T) {
		err := v.ValidateUserCredentials("", "password123")
		require.Error(t, err)
		require.Contains(t, err.Error(), "email is required")
	})

	t.Run("invalid email format", func(t *testing.T) {
		for _, email := range []string{"userexample.com", "@example.com", "user@localhost"} {
			err := v.ValidateUserCredentials(email, "password123")
			require.Error(t, err, email)
			require.Contains(t, err.Error(), "invalid email format")
		}
	})

	t.Run("empty password", func(t *testing.T) {
		err := v.ValidateUserCredentials("user@example.com", "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "password is required")
	})
}

func TestValidator_ValidateProfile(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.ValidateProfile(users.Profile{Name: "Hodan", Email: "hodan@example.com", Password: "pw"}))

	err := v.ValidateProfile(users.Profile{Name: "  ", Email: "hodan@example.com", Password: "pw"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "name is required")
}

func TestValidator_ValidateProfilePatch(t *testing.T) {
	v := auth.NewValidator()

	tests := []struct {
		name    string
		patch   users.ProfilePatch
		wantErr string
	}{
		{name: "empty patch", patch: users.ProfilePatch{}, wantErr: "nothing to update"},
		{name: "blank name", patch: users.ProfilePatch{Name: utils.Ptr(" ")}, wantErr: "name cannot be blank"},
		{name: "bad email", patch: users.ProfilePatch{Email: utils.Ptr("nope")}, wantErr: "invalid email format"},
		{name: "blank password", patch: users.ProfilePatch{Password: utils.Ptr("")}, wantErr: "password cannot be blank"},
		{name: "phone only", patch: users.ProfilePatch{Phone: utils.Ptr("+252 61 000 0000")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateProfilePatch(tt.patch)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

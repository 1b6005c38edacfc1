package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		want     []string
	}{
		{name: "valid", username: "ana", password: "pw"},
		{name: "trimmed username", username: "  ana  ", password: "pw"},
		{name: "blank username", username: "   ", password: "pw", want: []string{"Username cannot be empty."}},
		{name: "long username", username: strings.Repeat("u", 51), password: "pw", want: []string{"Username cannot exceed 50 characters."}},
		{name: "50 characters after trim", username: " " + strings.Repeat("u", 50) + " ", password: "pw"},
		{name: "empty password", username: "ana", want: []string{"Password cannot be empty."}},
		{name: "long password", username: "ana", password: strings.Repeat("p", 201), want: []string{"Password cannot exceed 200 characters."}},
		{
			name: "both invalid",
			want: []string{"Username cannot be empty.", "Password cannot be empty."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogin(tt.username, tt.password)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Messages)
		})
	}
}

func TestLogin(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetPassword("ana", "secret"))

	user, err := s.Login("  ana ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ana", user)

	_, err = s.Login("ana", "nope")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)

	_, err = s.Login("", "secret")
	assert.True(t, types.IsValidation(err))
}

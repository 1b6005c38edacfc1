package auth

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

type loginForm struct {
	Username string `validate:"required,max=50"`
	Password string `validate:"required,max=200"`
}

var loginMessages = map[string]map[string]string{
	"Username": {
		"required": "Username cannot be empty.",
		"max":      "Username cannot exceed 50 characters.",
	},
	"Password": {
		"required": "Password cannot be empty.",
		"max":      "Password cannot exceed 200 characters.",
	},
}

var (
	loginOnce      sync.Once
	loginValidator *validator.Validate
)

// ValidateLogin checks the shape of login input before any lookup: the
// trimmed username must be 1..50 characters and the password 1..200. It
// returns a *types.ValidationError.
func ValidateLogin(username, password string) error {
	loginOnce.Do(func() {
		loginValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	form := loginForm{Username: strings.TrimSpace(username), Password: password}

	verr := &types.ValidationError{}
	if err := loginValidator.Struct(form); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range fieldErrs {
			verr.Add(loginMessages[fe.Field()][fe.Tag()])
		}
	}
	return verr.Err()
}

// Login validates the input and authenticates it. The returned username
// is trimmed.
func (s *CredentialStore) Login(username, password string) (string, error) {
	if err := ValidateLogin(username, password); err != nil {
		return "", err
	}
	username = strings.TrimSpace(username)
	if err := s.Authenticate(username, password); err != nil {
		return "", err
	}
	return username, nil
}

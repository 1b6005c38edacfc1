package auth

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

func newStore(t *testing.T) *CredentialStore {
	t.Helper()
	s := NewCredentialStore(filepath.Join(t.TempDir(), "passwords.txt"), nil)
	s.cost = bcrypt.MinCost
	return s
}

func TestMissingFileHasNoUsers(t *testing.T) {
	s := newStore(t)

	users, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.ErrorIs(t, s.Authenticate("ana", "secret"), types.ErrInvalidCredentials)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	s := newStore(t)
	hash, err := s.HashPassword("pw")
	require.NoError(t, err)

	content := "ana:" + hash + "\nno colon here\n\n  bob:" + hash + "  \n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o600))

	users, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, hash, users["bob"])
	assert.NoError(t, s.Authenticate("bob", "pw"))
}

func TestSetPasswordAndAuthenticate(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.SetPassword("ana", "first"))
	require.NoError(t, s.SetPassword("bob", "other"))
	assert.NoError(t, s.Authenticate("ana", "first"))
	assert.ErrorIs(t, s.Authenticate("ana", "wrong"), types.ErrInvalidCredentials)
	assert.ErrorIs(t, s.Authenticate("carol", "first"), types.ErrInvalidCredentials)

	require.NoError(t, s.SetPassword("ana", "second"))
	assert.ErrorIs(t, s.Authenticate("ana", "first"), types.ErrInvalidCredentials)
	assert.NoError(t, s.Authenticate("ana", "second"))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ana:$2"))
	assert.True(t, strings.HasPrefix(lines[1], "bob:$2"))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSetPasswordValidates(t *testing.T) {
	s := newStore(t)

	err := s.SetPassword("  ", "pw")
	assert.True(t, types.IsValidation(err))
	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestConcurrentSetPasswordKeepsEveryUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passwords.txt")

	// Separate stores stand in for separate processes.
	names := []string{"ana", "ben", "cy", "dee", "eli", "fay"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s := NewCredentialStore(path, nil)
			s.cost = bcrypt.MinCost
			assert.NoError(t, s.SetPassword(name, "pw-"+name))
		}(name)
	}
	wg.Wait()

	s := NewCredentialStore(path, nil)
	users, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, users, len(names))
	for _, name := range names {
		assert.NoError(t, s.Authenticate(name, "pw-"+name))
	}
}

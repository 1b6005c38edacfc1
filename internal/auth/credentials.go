// Package auth checks usernames and passwords against a credential file
// of "username:bcrypt-hash" lines.
package auth

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/storybench/internal/logger"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// CredentialStore reads and updates a credential file. The file is read on
// every call, so edits made by other tools take effect immediately.
type CredentialStore struct {
	path string
	cost int
	log  *logger.Logger
}

// NewCredentialStore returns a store for the file at path. The file need
// not exist.
func NewCredentialStore(path string, log *logger.Logger) *CredentialStore {
	return &CredentialStore{path: path, cost: bcrypt.DefaultCost, log: logger.OrNop(log)}
}

// Path returns the credential file location.
func (s *CredentialStore) Path() string { return s.path }

// Load returns the username to hash map. A missing file yields no users;
// lines without a colon are skipped.
func (s *CredentialStore) Load() (map[string]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open credentials: %w", err)
	}
	defer f.Close()

	users := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		user, hash, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok {
			continue
		}
		users[user] = hash
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return users, nil
}

// Authenticate returns nil when password matches the stored hash of
// username, and types.ErrInvalidCredentials otherwise.
func (s *CredentialStore) Authenticate(username, password string) error {
	users, err := s.Load()
	if err != nil {
		return err
	}
	hash, ok := users[username]
	if !ok || hash == "" {
		s.log.Debug("unknown user", "user", username)
		return types.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.log.Debug("password mismatch", "user", username)
		return types.ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns the bcrypt hash of plain.
func (s *CredentialStore) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// SetPassword adds username or replaces its hash, rewriting the file
// atomically with users in name order. Concurrent writers, in this or
// other processes, are serialized by a lock file next to the credentials.
func (s *CredentialStore) SetPassword(username, password string) error {
	if err := ValidateLogin(username, password); err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	fl := flock.New(s.path + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock credentials: %w", err)
	}
	defer fl.Unlock()

	users, err := s.Load()
	if err != nil {
		return err
	}
	users[username] = hash

	names := make([]string, 0, len(users))
	for n := range users {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "%s:%s\n", n, users[n])
	}
	if err := writeAtomic(s.path, []byte(b.String())); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	s.log.Info("password set", "user", username)
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".passwords-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

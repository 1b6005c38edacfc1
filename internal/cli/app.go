package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storybench/internal/annotations"
	"github.com/mesh-intelligence/storybench/internal/auth"
	"github.com/mesh-intelligence/storybench/internal/logger"
	"github.com/mesh-intelligence/storybench/internal/paths"
	"github.com/mesh-intelligence/storybench/internal/records"
	"github.com/mesh-intelligence/storybench/internal/scoring"
	"github.com/mesh-intelligence/storybench/internal/submissions"
	"github.com/mesh-intelligence/storybench/pkg/storage"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

// rootFlags holds the global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	user      string
	password  string
	jsonMode  bool
}

// app is the state of one CLI invocation.
type app struct {
	flags rootFlags

	configDir string
	settings  settings
	requestID string
	log       *logger.Logger

	backend     types.Backend
	records     *records.Store
	submissions *submissions.Service
	annotations *annotations.Store
	selector    *annotations.Selector
	scoring     *scoring.Aggregator
}

// systemError marks failures of the environment rather than of the input.
type systemError struct{ err error }

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysErr(format string, args ...interface{}) error {
	return &systemError{err: fmt.Errorf(format, args...)}
}

// setup resolves directories, reads config.yaml, and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr("resolve config dir: %w", err)
	}
	a.configDir = dir

	s, err := loadSettings(dir)
	if err != nil {
		return sysErr("load config: %w", err)
	}
	a.settings = s

	log, err := logger.New(s.LogMode, s.LogLevel)
	if err != nil {
		return sysErr("init logger: %w", err)
	}
	a.requestID = newRequestID()
	a.log = log.With("request_id", a.requestID, "command", cmd.CommandPath())
	return nil
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (a *app) dataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
}

// open attaches the configured backend and wires the stores over it.
func (a *app) open() error {
	dir, err := a.dataDir()
	if err != nil {
		return sysErr("resolve data dir: %w", err)
	}
	backend, err := storage.Open(types.Config{Backend: a.settings.Backend, DataDir: dir}, a.log)
	if err != nil {
		return sysErr("open storage: %w", err)
	}
	a.backend = backend
	a.records = records.NewStore(backend, a.log)
	a.submissions = submissions.NewService(a.records, a.log)
	a.annotations = annotations.NewStore(backend, a.log)
	a.selector = annotations.NewSelector(a.records, a.annotations, nil)
	a.scoring = scoring.NewAggregator(a.records, a.annotations, a.log)
	a.log.Debug("backend attached", "backend", a.settings.Backend, "data_dir", dir)
	return nil
}

func (a *app) close() {
	if a.backend != nil {
		if err := a.backend.Detach(); err != nil && a.log != nil {
			a.log.Error("detach backend", "error", err)
		}
		a.backend = nil
	}
	if a.log != nil {
		a.log.Sync()
	}
}

func (a *app) credentials() *auth.CredentialStore {
	return auth.NewCredentialStore(paths.ResolvePasswordsFile(a.settings.PasswordsFile, a.configDir), a.log)
}

// currentUser returns the acting username from --user or STORYBENCH_USER.
// With require_password set, --password must authenticate it.
func (a *app) currentUser(cmd *cobra.Command) (string, error) {
	name := strings.TrimSpace(a.flags.user)
	if name == "" {
		return "", fmt.Errorf("%w: pass --user or set STORYBENCH_USER", types.ErrNotAuthenticated)
	}
	if a.settings.RequirePassword {
		user, err := a.credentials().Login(name, a.flags.password)
		if err != nil {
			return "", err
		}
		name = user
	}
	a.log = a.log.With("user", name)
	return name, nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *systemError
	if errors.As(err, &se) || errors.Is(err, types.ErrStorage) {
		return exitSysError
	}
	return exitUserError
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/storybench/internal/sqlite"
	"github.com/mesh-intelligence/storybench/pkg/types"
)

type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	t.Setenv(EnvUser, "")
	t.Setenv("STORYBENCH_LOG_LEVEL", "error")
	root := t.TempDir()
	return env{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (e env) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Run(full, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func (e env) writeConfig(t *testing.T, s settings) {
	t.Helper()
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	data, err := yaml.Marshal(&s)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), data, 0o644))
}

func storyArgs(user string) []string {
	return []string{
		"--user", user, "submit", "-c", "story",
		"--set", "prompt=" + strings.Repeat("p", 25),
		"--set", "technology=Go",
		"--set", "story=" + strings.Repeat("s", 150),
	}
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	r := e.run(t, "", "version")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "storybench v"+Version)
}

func TestInitCreatesConfigAndTables(t *testing.T) {
	e := newEnv(t)

	r := e.run(t, "", "init")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "storybench initialized")

	data, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	var s settings
	require.NoError(t, yaml.Unmarshal(data, &s))
	assert.Equal(t, types.BackendCSV, s.Backend)
	assert.Equal(t, e.dataDir, s.DataDir)

	for _, name := range types.StandardTableNames {
		_, err := os.Stat(filepath.Join(e.dataDir, name+".csv"))
		assert.NoError(t, err, name)
	}

	// A second init keeps the existing config.
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte("backend: csv\nlog_level: error\n"), 0o644))
	r = e.run(t, "", "init")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	data, err = os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	assert.Equal(t, "backend: csv\nlog_level: error\n", string(data))
}

func TestSubmitAndList(t *testing.T) {
	e := newEnv(t)

	r := e.run(t, "", storyArgs("alice")...)
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Equal(t, "saved story #1\n", r.stdout)

	r = e.run(t, "", "--user", "alice", "--json", "list")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	var out struct {
		Summary struct {
			Total int `json:"total"`
		} `json:"summary"`
		Submissions map[string][]types.Submission `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, 1, out.Summary.Total)
	require.Len(t, out.Submissions["story"], 1)
	assert.Equal(t, "Go", out.Submissions["story"][0].Fields["technology"])

	r = e.run(t, "", "--user", "alice", "list", "-c", "story")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "story (1)")
	assert.Contains(t, r.stdout, "#1")
	assert.NotContains(t, r.stdout, "theme")

	r = e.run(t, "", "--user", "alice", "show", "story", "1")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "technology: Go")

	r = e.run(t, "", "--user", "bob", "show", "story", "1")
	assert.Equal(t, exitUserError, r.code)
}

func TestSubmitFromFileAndEdit(t *testing.T) {
	e := newEnv(t)
	storyFile := filepath.Join(t.TempDir(), "story.txt")
	require.NoError(t, os.WriteFile(storyFile, []byte(strings.Repeat("line\n", 30)), 0o644))

	r := e.run(t, "", storyArgs("alice")...)
	require.Equal(t, exitSuccess, r.code, r.stderr)

	r = e.run(t, "", "--user", "alice", "submit", "-c", "story", "--id", "1",
		"--set", "prompt="+strings.Repeat("q", 25),
		"--set", "technology=Gemini",
		"--set-file", "story="+storyFile)
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Equal(t, "saved story #1\n", r.stdout)

	r = e.run(t, "", "--user", "alice", "--json", "show", "story", "1")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	var sub types.Submission
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &sub))
	assert.Equal(t, "Gemini", sub.Fields["technology"])
	assert.Equal(t, strings.Repeat("line\n", 30), sub.Fields["story"])
}

func TestSubmitErrors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "no user",
			args:    []string{"submit", "-c", "story"},
			wantErr: "not authenticated",
		},
		{
			name:    "incomplete section",
			args:    []string{"--user", "alice", "submit", "-c", "theme", "--set", "theme_prompt=short"},
			wantErr: "Theme transformation prompts must be at least 20 characters long if provided.",
		},
		{
			name:    "no category",
			args:    []string{"--user", "alice", "submit", "--set", "prompt=x"},
			wantErr: "At least one category must be selected.",
		},
		{
			name:    "unknown field",
			args:    []string{"--user", "alice", "submit", "-c", "story", "--set", "title=x"},
			wantErr: `unknown field "title"`,
		},
		{
			name:    "malformed set",
			args:    []string{"--user", "alice", "submit", "-c", "story", "--set", "prompt"},
			wantErr: "expected key=value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.run(t, "", tt.args...)
			assert.Equal(t, exitUserError, r.code)
			assert.Contains(t, r.stderr, tt.wantErr)
		})
	}

	r := e.run(t, "", "--user", "alice", "--json", "list")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, `"total": 0`)
}

func TestAnnotationFlow(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, exitSuccess, e.run(t, "", storyArgs("alice")...).code)

	r := e.run(t, "", "--user", "alice", "next", "story")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "nothing left to annotate")

	r = e.run(t, "", "--user", "bob", "--json", "next", "story")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	var next struct {
		Found      bool             `json:"found"`
		Submission types.Submission `json:"submission"`
		Checks     []string         `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &next))
	require.True(t, next.Found)
	assert.Equal(t, 1, next.Submission.ID)
	assert.Len(t, next.Checks, 6)

	r = e.run(t, "", "--user", "alice", "annotate", "story", "1", "--check", "clarity")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "your own submission")

	r = e.run(t, "", "--user", "bob", "annotate", "story", "1", "--check", "theme_quality")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, `unknown story check "theme_quality"`)

	r = e.run(t, "", "--user", "bob", "annotate", "story", "9", "--check", "clarity")
	assert.Equal(t, exitUserError, r.code)

	r = e.run(t, "", "--user", "bob", "annotate", "story", "1",
		"--check", "clarity", "--check", "creativity", "--check", "language", "--notes", "solid")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Equal(t, "annotated story #1: 3/6 checks\n", r.stdout)

	r = e.run(t, "", "--user", "bob", "annotate", "story", "1", "--check", "clarity")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "already annotated")

	r = e.run(t, "", "--user", "bob", "next", "story")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "nothing left to annotate")

	r = e.run(t, "", "--user", "alice", "--json", "scores")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	var scores map[string]struct {
		Score float64 `json:"score"`
		Max   int     `json:"max"`
		Count int     `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &scores))
	assert.Equal(t, 50.0, scores["story"].Score)
	assert.Equal(t, 100, scores["story"].Max)
	assert.Equal(t, 1, scores["story"].Count)

	r = e.run(t, "", "--user", "bob", "annotations")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "1 annotations")
	assert.Contains(t, r.stdout, "story #1  3/6")
	assert.Contains(t, r.stdout, "by alice")
	assert.Contains(t, r.stdout, "notes: solid")
}

func TestAnnotateSharedIDTargetsOtherOwner(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, exitSuccess, e.run(t, "", storyArgs("bob")...).code)
	// alice edits an id she does not own, which inserts her own story #1.
	r := e.run(t, "", append(storyArgs("alice"), "--id", "1")...)
	require.Equal(t, exitSuccess, r.code, r.stderr)

	r = e.run(t, "", "--user", "bob", "--json", "next", "story")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	var next struct {
		Found      bool             `json:"found"`
		Submission types.Submission `json:"submission"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &next))
	require.True(t, next.Found)
	assert.Equal(t, "alice", next.Submission.Owner)
	assert.Equal(t, 1, next.Submission.ID)

	r = e.run(t, "", "--user", "bob", "annotate", "story", "1", "--check", "clarity")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Equal(t, "annotated story #1: 1/6 checks\n", r.stdout)
}

func TestRequirePassword(t *testing.T) {
	e := newEnv(t)
	s := defaultSettings()
	s.LogLevel = "error"
	s.RequirePassword = true
	e.writeConfig(t, s)

	r := e.run(t, "hunter22\n", "user", "add", "alice")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, filepath.Join(e.configDir, "passwords.txt"))

	r = e.run(t, "", "--password", "hunter22", "user", "check", "alice")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Equal(t, "ok: alice\n", r.stdout)

	r = e.run(t, "wrong\n", "user", "check", "alice")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "invalid credentials")

	r = e.run(t, "", "--user", "alice", "list")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "Password cannot be empty.")

	r = e.run(t, "", "--user", "alice", "--password", "hunter22", "list")
	require.Equal(t, exitSuccess, r.code, r.stderr)
}

func TestSQLiteBackend(t *testing.T) {
	e := newEnv(t)
	s := defaultSettings()
	s.Backend = types.BackendSQLite
	s.LogLevel = "error"
	e.writeConfig(t, s)

	require.Equal(t, exitSuccess, e.run(t, "", storyArgs("alice")...).code)
	require.Equal(t, exitSuccess, e.run(t, "", storyArgs("alice")...).code)

	_, err := os.Stat(filepath.Join(e.dataDir, sqlite.DBFileName))
	require.NoError(t, err)

	r := e.run(t, "", "--user", "alice", "list")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "story (2)")
}

func TestUnknownBackendIsSystemError(t *testing.T) {
	e := newEnv(t)
	s := defaultSettings()
	s.Backend = "mongo"
	e.writeConfig(t, s)

	r := e.run(t, "", "--user", "alice", "list")
	assert.Equal(t, exitSysError, r.code)
	assert.Contains(t, r.stderr, "unknown backend")
}

func TestInvalidArguments(t *testing.T) {
	e := newEnv(t)

	r := e.run(t, "", "--user", "bob", "next", "poetry")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "poetry")

	r = e.run(t, "", "--user", "bob", "annotate", "story", "abc")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "invalid id")
}

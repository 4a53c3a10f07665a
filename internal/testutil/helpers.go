package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"commitscore/internal/common"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t *testing.T
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// Author identifies who a test commit is attributed to
type Author struct {
	Name  string
	Email string
}

// TestRepository is an on-disk git repository used by tests
type TestRepository struct {
	h    *TestHelper
	Dir  string
	Repo *git.Repository
	tick time.Time
}

// InitRepository creates an empty repository in a temp dir
func (h *TestHelper) InitRepository() *TestRepository {
	dir := h.t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		h.t.Fatalf("Failed to init repository: %v", err)
	}

	return &TestRepository{
		h:    h,
		Dir:  dir,
		Repo: repo,
		tick: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// WriteFile writes content to a file in the given directory
func (h *TestHelper) WriteFile(dir, filename, content string) string {
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
		h.t.Fatalf("Failed to create directories: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), common.FilePermissionNormal); err != nil {
		h.t.Fatalf("Failed to write file %s: %v", path, err)
	}

	return path
}

// Commit writes file and commits it as author. Commit times advance by one
// minute per call so histories are deterministic.
func (r *TestRepository) Commit(file, content string, author Author, message string) plumbing.Hash {
	r.h.WriteFile(r.Dir, file, content)

	worktree, err := r.Repo.Worktree()
	if err != nil {
		r.h.t.Fatalf("Failed to open worktree: %v", err)
	}
	if _, err := worktree.Add(file); err != nil {
		r.h.t.Fatalf("Failed to add %s: %v", file, err)
	}

	r.tick = r.tick.Add(time.Minute)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: r.tick},
	})
	if err != nil {
		r.h.t.Fatalf("Failed to commit: %v", err)
	}

	return hash
}

// MockEnv temporarily sets environment variables
func (h *TestHelper) MockEnv(key, value string) func() {
	oldValue, exists := os.LookupEnv(key)

	if err := os.Setenv(key, value); err != nil {
		h.t.Fatalf("Failed to set env var %s: %v", key, err)
	}

	return func() {
		if exists {
			os.Setenv(key, oldValue)
		} else {
			os.Unsetenv(key)
		}
	}
}

// UnsetEnv temporarily removes environment variables
func (h *TestHelper) UnsetEnv(keys ...string) func() {
	restore := make(map[string]string)
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			restore[key] = value
		}
		os.Unsetenv(key)
	}

	return func() {
		for key, value := range restore {
			os.Setenv(key, value)
		}
	}
}

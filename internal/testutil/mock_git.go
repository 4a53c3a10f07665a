package testutil

import (
	"context"
	"fmt"
	"sync"

	"commitscore/pkg/models"
)

// MockHistory is an in-memory commit history implementing the analyzer backend
type MockHistory struct {
	mu sync.Mutex

	Commits []models.Commit

	// Error simulation
	WalkError error
	DiffError map[string]error // keyed by commit tree hash

	// Operation tracking
	Operations []string
}

// NewMockHistory creates a history yielding commits in the given order
func NewMockHistory(commits ...models.Commit) *MockHistory {
	return &MockHistory{
		Commits:   commits,
		DiffError: make(map[string]error),
	}
}

// Walk yields every commit in order
func (m *MockHistory) Walk(ctx context.Context, fn func(models.Commit) error) error {
	m.track("walk")
	if m.WalkError != nil {
		return m.WalkError
	}

	for _, c := range m.Commits {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.track("yield " + c.Hash)
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// DiffStats returns a deterministic placeholder summary
func (m *MockHistory) DiffStats(ctx context.Context, fromTree, toTree string) (string, error) {
	m.track("diff " + toTree)
	if err, ok := m.DiffError[toTree]; ok {
		return "", err
	}
	if fromTree == "" {
		return fmt.Sprintf(" (root) => %s | 1 +\n 1 file changed, 1 insertion(+)\n", toTree), nil
	}
	return fmt.Sprintf(" %s => %s | 1 +\n 1 file changed, 1 insertion(+)\n", fromTree, toTree), nil
}

// Ops returns a copy of the recorded operations
func (m *MockHistory) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Operations...)
}

func (m *MockHistory) track(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Operations = append(m.Operations, op)
}

// NewCommit builds a commit with derived tree hashes
func NewCommit(hash, parent, name, email, message string) models.Commit {
	c := models.Commit{
		Hash:        hash,
		ParentHash:  parent,
		TreeHash:    "tree-" + hash,
		AuthorName:  name,
		AuthorEmail: email,
		Message:     message,
	}
	if parent != "" {
		c.ParentTreeHash = "tree-" + parent
	}
	return c
}

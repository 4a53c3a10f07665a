package models

import "time"

// UnknownIdentity is used when a commit carries no author name or email
const UnknownIdentity = "unknown"

// Commit is the read-only view of a history entry consumed by the analyzer.
// Only the first parent is tracked; merge commits are diffed against it.
type Commit struct {
	Hash           string    `json:"hash"`
	ParentHash     string    `json:"parent_hash,omitempty"`
	TreeHash       string    `json:"tree_hash"`
	ParentTreeHash string    `json:"parent_tree_hash,omitempty"`
	AuthorName     string    `json:"author_name"`
	AuthorEmail    string    `json:"author_email"`
	Message        string    `json:"message"`
	When           time.Time `json:"when"`
}

// IsRoot reports whether the commit has no parent
func (c Commit) IsRoot() bool {
	return c.ParentHash == ""
}

// ShortHash returns the abbreviated commit hash
func (c Commit) ShortHash() string {
	if len(c.Hash) > 8 {
		return c.Hash[:8]
	}
	return c.Hash
}

package git

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/maxbolgarin/logze/v2"

	"commitscore/pkg/errors"
	"commitscore/pkg/models"
)

// DefaultStatWidth is the column width diff summaries are rendered at
const DefaultStatWidth = 80

// renameScore is the similarity percentage above which a delete+add pair
// is reported as a rename
const renameScore = 50

// Repository reads commit history and tree diffs from a local git repository
type Repository struct {
	path  string
	repo  *git.Repository
	width int
	log   logze.Logger
}

// Open opens the repository containing path
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.RepositoryAccessError("failed to open repository", err).
			WithContext("path", path)
	}

	return &Repository{
		path:  path,
		repo:  repo,
		width: DefaultStatWidth,
		log:   logze.With("component", "git", "path", path),
	}, nil
}

// Path returns the path the repository was opened from
func (r *Repository) Path() string {
	return r.path
}

// Walk calls fn once for every commit reachable from HEAD, one at a time, in
// go-git's log order. Errors returned by fn are passed through unchanged.
func (r *Repository) Walk(ctx context.Context, fn func(models.Commit) error) error {
	head, err := r.repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			// HEAD points at a branch without commits
			r.log.Debug("HEAD is unborn, nothing to walk")
			return nil
		}
		return errors.RepositoryAccessError("failed to resolve HEAD", err).
			WithContext("path", r.path)
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return errors.RepositoryAccessError("failed to read commit log", err).
			WithContext("head", head.Hash().String())
	}
	defer iter.Close()

	var stopErr error
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			stopErr = err
			return storer.ErrStop
		}

		commit, err := r.toModel(c)
		if err != nil {
			stopErr = err
			return storer.ErrStop
		}

		if err := fn(commit); err != nil {
			stopErr = err
			return storer.ErrStop
		}
		return nil
	})
	if stopErr != nil {
		return stopErr
	}
	if err != nil {
		return errors.RepositoryAccessError("failed to iterate commits", err).
			WithContext("head", head.Hash().String())
	}

	return nil
}

func (r *Repository) toModel(c *object.Commit) (models.Commit, error) {
	commit := models.Commit{
		Hash:        c.Hash.String(),
		TreeHash:    c.TreeHash.String(),
		AuthorName:  identity(c.Author.Name),
		AuthorEmail: identity(c.Author.Email),
		Message:     c.Message,
		When:        c.Author.When,
	}

	if len(c.ParentHashes) == 0 {
		return commit, nil
	}

	parent, err := r.repo.CommitObject(c.ParentHashes[0])
	if err != nil {
		if stderrors.Is(err, plumbing.ErrObjectNotFound) {
			// Shallow clones cut history at a commit whose parent is absent.
			r.log.Debug("first parent missing, diffing against empty tree",
				"commit", c.Hash.String(), "parent", c.ParentHashes[0].String())
			return commit, nil
		}
		return models.Commit{}, errors.RepositoryAccessError("failed to read parent commit", err).
			WithContext("commit", c.Hash.String())
	}

	commit.ParentHash = parent.Hash.String()
	commit.ParentTreeHash = parent.TreeHash.String()

	return commit, nil
}

// DiffStats renders the diffstat between two trees. An empty fromTree means
// the change is compared against an empty tree.
func (r *Repository) DiffStats(ctx context.Context, fromTree, toTree string) (string, error) {
	stats, err := r.FileStats(ctx, fromTree, toTree)
	if err != nil {
		return "", err
	}
	return RenderDiffStat(stats, r.width), nil
}

// FileStats computes per-path line counts between two trees with rename
// detection applied
func (r *Repository) FileStats(ctx context.Context, fromTree, toTree string) ([]FileStat, error) {
	from, err := r.tree(fromTree)
	if err != nil {
		return nil, err
	}
	to, err := r.tree(toTree)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, from, to, &object.DiffTreeOptions{
		DetectRenames: true,
		RenameScore:   renameScore,
	})
	if err != nil {
		return nil, errors.DiffComputationError("failed to diff trees", err).
			WithContext("from", fromTree).
			WithContext("to", toTree)
	}

	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, errors.DiffComputationError("failed to build patch", err).
			WithContext("from", fromTree).
			WithContext("to", toTree)
	}

	return r.fileStatsFromPatch(patch)
}

func (r *Repository) tree(hash string) (*object.Tree, error) {
	if hash == "" {
		return &object.Tree{}, nil
	}

	tree, err := r.repo.TreeObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, errors.DiffComputationError("failed to resolve tree", err).
			WithContext("tree", hash)
	}
	return tree, nil
}

// fileStatsFromPatch differs from object.Patch.Stats in keeping entries
// without hunks, so pure renames and binary files are still listed.
func (r *Repository) fileStatsFromPatch(patch *object.Patch) ([]FileStat, error) {
	filePatches := patch.FilePatches()
	stats := make([]FileStat, 0, len(filePatches))

	for _, fp := range filePatches {
		from, to := fp.Files()

		var stat FileStat
		switch {
		case from == nil && to == nil:
			continue
		case from == nil:
			stat.Name = to.Path()
		case to == nil:
			stat.Name = from.Path()
		case from.Path() != to.Path():
			stat.Name = from.Path() + " => " + to.Path()
		default:
			stat.Name = from.Path()
		}

		if fp.IsBinary() {
			stat.Binary = true
			var err error
			if stat.OldSize, err = r.blobSize(from); err != nil {
				return nil, err
			}
			if stat.NewSize, err = r.blobSize(to); err != nil {
				return nil, err
			}
			stats = append(stats, stat)
			continue
		}

		for _, chunk := range fp.Chunks() {
			switch chunk.Type() {
			case fdiff.Add:
				stat.Additions += countLines(chunk.Content())
			case fdiff.Delete:
				stat.Deletions += countLines(chunk.Content())
			}
		}

		stats = append(stats, stat)
	}

	return stats, nil
}

// blobSize returns the size in bytes of f's blob, 0 for an absent side
func (r *Repository) blobSize(f fdiff.File) (int64, error) {
	if f == nil || f.Hash().IsZero() {
		return 0, nil
	}

	blob, err := r.repo.BlobObject(f.Hash())
	if err != nil {
		return 0, errors.DiffComputationError("failed to read blob", err).
			WithContext("path", f.Path()).
			WithContext("blob", f.Hash().String())
	}
	return blob.Size, nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if s[len(s)-1] != '\n' {
		n++
	}
	return n
}

func identity(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.UnknownIdentity
	}
	return s
}

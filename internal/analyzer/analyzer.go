package analyzer

import (
	"context"
	stderrors "errors"

	"github.com/maxbolgarin/logze/v2"

	"commitscore/internal/aggregate"
	"commitscore/pkg/errors"
	"commitscore/pkg/models"
)

// History enumerates every commit reachable from HEAD, one at a time
type History interface {
	Walk(ctx context.Context, fn func(models.Commit) error) error
}

// Differ renders the diffstat between two trees; an empty fromTree is the
// empty baseline
type Differ interface {
	DiffStats(ctx context.Context, fromTree, toTree string) (string, error)
}

// Backend is the version-control capability the analyzer needs
type Backend interface {
	History
	Differ
}

// Scorer scores one commit
type Scorer interface {
	Score(ctx context.Context, codeDiff, commitMessage string) (models.AnalysisResult, error)
}

// Observer is called after each commit has been scored and recorded
type Observer func(index int, commit models.Commit, result models.AnalysisResult)

// Stage names the pipeline step an error came from
type Stage string

const (
	StageWalk     Stage = "walk"
	StageDiff     Stage = "diff"
	StageScore    Stage = "score"
	StageFinalize Stage = "finalize"
)

// Option configures an Analyzer
type Option func(*Analyzer)

// WithObserver registers a callback invoked after each scored commit
func WithObserver(o Observer) Option {
	return func(a *Analyzer) {
		a.observer = o
	}
}

// WithLogger overrides the analyzer logger
func WithLogger(log logze.Logger) Option {
	return func(a *Analyzer) {
		a.log = log
	}
}

// Analyzer drives walk -> diff -> score -> record for every commit. Commits
// are processed strictly in sequence: the next diff starts only after the
// previous scoring round trip has returned.
type Analyzer struct {
	backend  Backend
	scorer   Scorer
	observer Observer
	log      logze.Logger
	state    State
}

// New creates an analyzer over backend and scorer
func New(backend Backend, scorer Scorer, opts ...Option) *Analyzer {
	a := &Analyzer{
		backend: backend,
		scorer:  scorer,
		log:     logze.With("component", "analyzer"),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current pipeline state
func (a *Analyzer) State() State {
	return a.state
}

// Run scores the whole history and returns the per-committer report. The
// first failure aborts the run; no partial report is returned.
func (a *Analyzer) Run(ctx context.Context) (*aggregate.Report, error) {
	builder := aggregate.NewBuilder()
	index := 0

	a.transition(StateWalking)
	a.log.Info("analysis started")

	err := a.backend.Walk(ctx, func(commit models.Commit) error {
		a.transition(StateScoring)

		result, err := a.scoreCommit(ctx, commit)
		if err != nil {
			return err
		}

		if err := builder.Record(commit.AuthorEmail, commit.AuthorName,
			result.PerformanceScore, result.MaintainabilityScore); err != nil {
			return err
		}

		index++
		a.log.Debug("scores recorded", "index", index, "committers", builder.Len())
		if a.observer != nil {
			a.observer(index, commit, result)
		}

		a.transition(StateWalking)
		return nil
	})
	if err != nil {
		a.transition(StateFailed)
		return nil, annotate(err, StageWalk, "")
	}

	report, err := builder.Finalize()
	if err != nil {
		a.transition(StateFailed)
		return nil, annotate(err, StageFinalize, "")
	}

	a.transition(StateDone)
	a.log.Info("analysis finished", "commits", index, "committers", report.Len())

	return report, nil
}

func (a *Analyzer) scoreCommit(ctx context.Context, commit models.Commit) (models.AnalysisResult, error) {
	diff, err := a.backend.DiffStats(ctx, commit.ParentTreeHash, commit.TreeHash)
	if err != nil {
		return models.AnalysisResult{}, annotate(err, StageDiff, commit.Hash)
	}

	a.log.Debug("scoring commit", "commit", commit.ShortHash(), "author", commit.AuthorEmail, "root", commit.IsRoot())

	result, err := a.scorer.Score(ctx, diff, commit.Message)
	if err != nil {
		return models.AnalysisResult{}, annotate(err, StageScore, commit.Hash)
	}

	a.log.Debug("commit scored", "commit", commit.ShortHash(),
		"performance", result.PerformanceScore, "maintainability", result.MaintainabilityScore)

	return result, nil
}

func (a *Analyzer) transition(next State) {
	a.state = next
}

// annotate records the failing stage and commit on err. The first stage to
// annotate an error wins, so walk-level wrapping keeps the inner stage.
func annotate(err error, stage Stage, commit string) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		code := errors.ErrCodeInternal
		switch stage {
		case StageDiff:
			code = errors.ErrCodeDiffComputation
		case StageScore:
			code = errors.ErrCodeRemoteService
		case StageWalk:
			code = errors.ErrCodeRepositoryAccess
		}
		appErr = errors.Wrap(err, code, string(stage)+" failed")
		err = appErr
	}

	if _, ok := appErr.Context["stage"]; !ok {
		appErr.WithContext("stage", string(stage))
	}
	if commit != "" {
		if _, ok := appErr.Context["commit"]; !ok {
			appErr.WithContext("commit", commit)
		}
	}

	return err
}

package analyzer

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/maxbolgarin/logze/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commitscore/internal/git"
	"commitscore/internal/scoring"
	"commitscore/internal/testutil"
	"commitscore/pkg/errors"
	"commitscore/pkg/models"
)

func TestRunSingleRootCommit(t *testing.T) {
	history := testutil.NewMockHistory(
		testutil.NewCommit("c1", "", "Alice", "alice@x.com", "initial"),
	)
	scorer := testutil.NewMockScorer(testutil.Result(8.0, 7.0))

	a := New(history, scorer)
	report, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, a.State())
	require.Equal(t, 1, report.Len())

	alice, ok := report.Get("alice@x.com")
	require.True(t, ok)
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, 8.0, alice.Performance)
	assert.Equal(t, 7.0, alice.Maintainability)

	require.Len(t, scorer.Calls, 1)
	assert.Equal(t, "initial", scorer.Calls[0].CommitMessage)
	assert.Contains(t, scorer.Calls[0].CodeDiff, "(root)")
}

func TestRunLogsToConfiguredLogger(t *testing.T) {
	history := testutil.NewMockHistory(
		testutil.NewCommit("c2", "c1", "Bob", "bob@x.com", "second"),
		testutil.NewCommit("c1", "", "Alice", "alice@x.com", "first"),
	)
	scorer := testutil.NewMockScorer(testutil.Result(5.0, 5.0), testutil.Result(7.0, 9.0))

	var buf bytes.Buffer
	log := logze.New(logze.NewConfig(&buf).WithLevel(logze.LevelDebug).WithNoDiode(), "run", "t1")

	_, err := New(history, scorer, WithLogger(log)).Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"run":"t1"`)
	assert.Contains(t, out, "analysis finished")
	assert.Contains(t, out, `"committers":2`)
}

func TestRunAveragesPerCommitter(t *testing.T) {
	history := testutil.NewMockHistory(
		testutil.NewCommit("c2", "c1", "Bob", "bob@x.com", "second"),
		testutil.NewCommit("c1", "", "Bob", "bob@x.com", "first"),
	)
	scorer := testutil.NewMockScorer(testutil.Result(5.0, 5.0), testutil.Result(7.0, 9.0))

	report, err := New(history, scorer).Run(context.Background())
	require.NoError(t, err)

	bob, ok := report.Get("bob@x.com")
	require.True(t, ok)
	assert.Equal(t, 6.0, bob.Performance)
	assert.Equal(t, 7.0, bob.Maintainability)
	assert.Equal(t, 2, bob.Commits)
}

func TestRunEmptyHistory(t *testing.T) {
	scorer := testutil.NewMockScorer(testutil.Result(1, 1))

	a := New(testutil.NewMockHistory(), scorer)
	report, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Len())
	assert.Equal(t, 0, scorer.CallCount())
	assert.Equal(t, StateDone, a.State())
}

func TestRunAbortsOnAuthenticationError(t *testing.T) {
	history := testutil.NewMockHistory(
		testutil.NewCommit("c3", "c2", "Ann", "ann@x.com", "third"),
		testutil.NewCommit("c2", "c1", "Ann", "ann@x.com", "second"),
		testutil.NewCommit("c1", "", "Ann", "ann@x.com", "first"),
	)
	scorer := testutil.NewMockScorer(testutil.Result(5, 5)).
		FailOn(1, errors.AuthenticationError("rejected", http.StatusUnauthorized))

	a := New(history, scorer)
	report, err := a.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.IsAuthentication(err))
	assert.Equal(t, StateFailed, a.State())

	// The commit after the failing one is never diffed or scored
	assert.Equal(t, 2, scorer.CallCount())
	assert.NotContains(t, history.Ops(), "diff tree-c1")

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, "score", appErr.Context["stage"])
	assert.Equal(t, "c2", appErr.Context["commit"])
}

func TestRunAbortsOnDiffError(t *testing.T) {
	history := testutil.NewMockHistory(
		testutil.NewCommit("c2", "c1", "Ann", "ann@x.com", "second"),
		testutil.NewCommit("c1", "", "Ann", "ann@x.com", "first"),
	)
	history.DiffError["tree-c2"] = fmt.Errorf("object not found")
	scorer := testutil.NewMockScorer(testutil.Result(5, 5))

	a := New(history, scorer)
	_, err := a.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDiffComputation, errors.GetErrorCode(err))
	assert.Equal(t, 0, scorer.CallCount())
	assert.Equal(t, StateFailed, a.State())

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, "diff", appErr.Context["stage"])
}

func TestRunPropagatesWalkError(t *testing.T) {
	history := testutil.NewMockHistory()
	history.WalkError = errors.RepositoryAccessError("failed to resolve HEAD", fmt.Errorf("bad ref"))

	_, err := New(history, testutil.NewMockScorer(testutil.Result(1, 1))).Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRepositoryAccess, errors.GetErrorCode(err))
}

func TestRunWrapsUntypedScorerErrors(t *testing.T) {
	history := testutil.NewMockHistory(testutil.NewCommit("c1", "", "Ann", "ann@x.com", "first"))
	scorer := testutil.NewMockScorer().FailOn(0, fmt.Errorf("boom"))

	_, err := New(history, scorer).Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRemoteService, errors.GetErrorCode(err))
}

func TestRunIsSequential(t *testing.T) {
	history := testutil.NewMockHistory(
		testutil.NewCommit("c3", "c2", "Ann", "ann@x.com", "third"),
		testutil.NewCommit("c2", "c1", "Ann", "ann@x.com", "second"),
		testutil.NewCommit("c1", "", "Ann", "ann@x.com", "first"),
	)
	scorer := testutil.NewMockScorer(testutil.Result(1, 1))

	var a *Analyzer
	scorer.Hook = func(call int) {
		// While a request is outstanding nothing else has started
		assert.Equal(t, StateScoring, a.State())
		ops := history.Ops()
		assert.Equal(t, "diff tree-c"+fmt.Sprint(3-call), ops[len(ops)-1])
	}

	a = New(history, scorer)
	_, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, scorer.MaxInFlight())
	assert.Equal(t, []string{
		"walk",
		"yield c3", "diff tree-c3",
		"yield c2", "diff tree-c2",
		"yield c1", "diff tree-c1",
	}, history.Ops())
}

func TestRunIsIdempotent(t *testing.T) {
	history := testutil.NewMockHistory(
		testutil.NewCommit("c3", "c2", "Ann", "ann@x.com", "third"),
		testutil.NewCommit("c2", "c1", "Bob", "bob@x.com", "second"),
		testutil.NewCommit("c1", "", "Ann", "ann@x.com", "first"),
	)
	results := []models.AnalysisResult{testutil.Result(3, 4), testutil.Result(5, 6), testutil.Result(7, 8)}

	first, err := New(history, testutil.NewMockScorer(results...)).Run(context.Background())
	require.NoError(t, err)
	second, err := New(history, testutil.NewMockScorer(results...)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Committers(), second.Committers())
}

func TestRunNotifiesObserver(t *testing.T) {
	history := testutil.NewMockHistory(
		testutil.NewCommit("c2", "c1", "Ann", "ann@x.com", "second"),
		testutil.NewCommit("c1", "", "Ann", "ann@x.com", "first"),
	)

	var seen []string
	observer := func(index int, c models.Commit, r models.AnalysisResult) {
		seen = append(seen, fmt.Sprintf("%d:%s:%.0f", index, c.Hash, r.PerformanceScore))
	}

	_, err := New(history, testutil.NewMockScorer(testutil.Result(2, 2), testutil.Result(4, 4)),
		WithObserver(observer)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1:c2:2", "2:c1:4"}, seen)
}

func TestRunCancelled(t *testing.T) {
	history := testutil.NewMockHistory(testutil.NewCommit("c1", "", "Ann", "ann@x.com", "first"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(history, testutil.NewMockScorer(testutil.Result(1, 1))).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "walking", StateWalking.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, StateDone.Terminal())
	assert.False(t, StateScoring.Terminal())
}

// End-to-end over a real repository and an HTTP scoring stub

func newRealAnalyzer(t *testing.T, repo *testutil.TestRepository, server *testutil.ScoringServer) *Analyzer {
	t.Helper()

	backend, err := git.Open(repo.Dir)
	require.NoError(t, err)

	client, err := scoring.New(scoring.Config{Endpoint: server.Endpoint(), APIKey: "test-key"})
	require.NoError(t, err)

	return New(backend, client)
}

func TestRunRepositoryAliceScenario(t *testing.T) {
	h := testutil.NewTestHelper(t)
	repo := h.InitRepository()
	repo.Commit("README.md", "# hello\n", testutil.Author{Name: "Alice", Email: "alice@x.com"}, "initial commit")

	server := testutil.NewScoringServer(t, testutil.ScoreResponse(8.0, 7.0))

	report, err := newRealAnalyzer(t, repo, server).Run(context.Background())
	require.NoError(t, err)

	committers := report.Committers()
	require.Len(t, committers, 1)
	assert.Equal(t, models.CommitterSummary{
		Name:            "Alice",
		Email:           "alice@x.com",
		Commits:         1,
		Performance:     8.0,
		Maintainability: 7.0,
	}, committers[0])

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, " README.md | 1 +\n 1 file changed, 1 insertion(+)\n", requests[0]["code_diff"])
	assert.Equal(t, "initial commit", requests[0]["commit_message"])
	assert.Equal(t, "Bearer test-key", server.Authorizations()[0])
}

func TestRunRepositoryBobScenario(t *testing.T) {
	h := testutil.NewTestHelper(t)
	repo := h.InitRepository()
	bob := testutil.Author{Name: "Bob", Email: "bob@x.com"}
	repo.Commit("a.txt", "one\n", bob, "first")
	repo.Commit("a.txt", "one\ntwo\n", bob, "second")

	server := testutil.NewScoringServer(t,
		testutil.ScoreResponse(5.0, 5.0),
		testutil.ScoreResponse(7.0, 9.0),
	)

	report, err := newRealAnalyzer(t, repo, server).Run(context.Background())
	require.NoError(t, err)

	summary, ok := report.Get("bob@x.com")
	require.True(t, ok)
	assert.Equal(t, 6.0, summary.Performance)
	assert.Equal(t, 7.0, summary.Maintainability)
}

func TestRunRepositoryUnauthorizedOnSecondCommit(t *testing.T) {
	h := testutil.NewTestHelper(t)
	repo := h.InitRepository()
	dev := testutil.Author{Name: "Dev", Email: "dev@x.com"}
	repo.Commit("a.txt", "1\n", dev, "first")
	repo.Commit("a.txt", "1\n2\n", dev, "second")
	repo.Commit("a.txt", "1\n2\n3\n", dev, "third")

	server := testutil.NewScoringServer(t,
		testutil.ScoreResponse(5.0, 5.0),
		testutil.ScriptedResponse{Status: http.StatusUnauthorized, Body: `{"error":"invalid key"}`},
	)

	a := newRealAnalyzer(t, repo, server)
	report, err := a.Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.IsAuthentication(err))
	assert.Len(t, server.Requests(), 2)
	assert.Equal(t, StateFailed, a.State())
}

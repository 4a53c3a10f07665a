package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"commitscore/pkg/models"
)

// ScoreCall records one request made to a MockScorer
type ScoreCall struct {
	CodeDiff      string
	CommitMessage string
}

// MockScorer returns scripted results in call order
type MockScorer struct {
	mu sync.Mutex

	Results []models.AnalysisResult
	// Errors maps a zero-based call index to the error returned for it
	Errors map[int]error
	// Hook runs inside Score before it returns
	Hook func(call int)

	Calls []ScoreCall

	inFlight    int32
	maxInFlight int32
}

// NewMockScorer creates a scorer returning results one per call
func NewMockScorer(results ...models.AnalysisResult) *MockScorer {
	return &MockScorer{
		Results: results,
		Errors:  make(map[int]error),
	}
}

// FailOn makes the call with the given zero-based index return err
func (m *MockScorer) FailOn(call int, err error) *MockScorer {
	m.Errors[call] = err
	return m
}

// Score implements the analyzer scorer
func (m *MockScorer) Score(ctx context.Context, codeDiff, commitMessage string) (models.AnalysisResult, error) {
	current := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&m.maxInFlight)
		if current <= peak || atomic.CompareAndSwapInt32(&m.maxInFlight, peak, current) {
			break
		}
	}

	m.mu.Lock()
	call := len(m.Calls)
	m.Calls = append(m.Calls, ScoreCall{CodeDiff: codeDiff, CommitMessage: commitMessage})
	hook := m.Hook
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	if err, ok := m.Errors[call]; ok {
		return models.AnalysisResult{}, err
	}
	if len(m.Results) == 0 {
		return models.AnalysisResult{}, fmt.Errorf("mock scorer has no results configured")
	}
	if call < len(m.Results) {
		return m.Results[call], nil
	}
	return m.Results[len(m.Results)-1], nil
}

// CallCount returns how many times Score was called
func (m *MockScorer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MaxInFlight returns the highest number of concurrent Score calls observed
func (m *MockScorer) MaxInFlight() int {
	return int(atomic.LoadInt32(&m.maxInFlight))
}

// Result is a shorthand for an AnalysisResult without explanation
func Result(performance, maintainability float64) models.AnalysisResult {
	return models.AnalysisResult{
		PerformanceScore:     performance,
		MaintainabilityScore: maintainability,
	}
}

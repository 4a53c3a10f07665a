// Package aggregate accumulates per-commit scores by committer email and
// reduces them to per-committer means.
//
// Aggregation happens in two phases: a Builder collects scores while the
// history is walked, and Finalize converts it into an immutable Report. A
// Builder accepts no further scores once finalized.
package aggregate

import (
	"sort"

	"commitscore/pkg/errors"
	"commitscore/pkg/models"
)

// committerStats is the mutable accumulator for one email
type committerStats struct {
	name            string
	performance     []float64
	maintainability []float64
}

// Builder collects scores keyed by committer email. It is not safe for
// concurrent use; the analyzer records from a single goroutine.
type Builder struct {
	stats     map[string]*committerStats
	finalized bool
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{stats: make(map[string]*committerStats)}
}

// Record appends one commit's scores to email's series, creating the entry on
// first sight. The name stored for an email is the one seen first.
func (b *Builder) Record(email, name string, performance, maintainability float64) error {
	if b.finalized {
		return errors.New(errors.ErrCodeInvalidState, "cannot record scores after finalize").
			WithContext("email", email)
	}

	s, ok := b.stats[email]
	if !ok {
		s = &committerStats{name: name}
		b.stats[email] = s
	}
	s.performance = append(s.performance, performance)
	s.maintainability = append(s.maintainability, maintainability)

	return nil
}

// Len returns the number of distinct emails recorded so far
func (b *Builder) Len() int {
	return len(b.stats)
}

// Finalize reduces every series to its arithmetic mean and seals the builder
func (b *Builder) Finalize() (*Report, error) {
	if b.finalized {
		return nil, errors.New(errors.ErrCodeInvalidState, "builder already finalized")
	}

	summaries := make(map[string]models.CommitterSummary, len(b.stats))
	for email, s := range b.stats {
		perf, err := mean(email, s.performance)
		if err != nil {
			return nil, err
		}
		maint, err := mean(email, s.maintainability)
		if err != nil {
			return nil, err
		}

		summaries[email] = models.CommitterSummary{
			Name:            s.name,
			Email:           email,
			Commits:         len(s.performance),
			Performance:     perf,
			Maintainability: maint,
		}
	}

	b.finalized = true
	b.stats = nil

	return &Report{summaries: summaries}, nil
}

func mean(key string, series []float64) (float64, error) {
	if len(series) == 0 {
		return 0, errors.EmptySeriesError(key)
	}

	// Summing in sorted order keeps the result independent of the order the
	// commits were walked in.
	sorted := append([]float64(nil), series...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted)), nil
}

// Report is the finalized, read-only result of an aggregation
type Report struct {
	summaries map[string]models.CommitterSummary
}

// Len returns the number of committers in the report
func (r *Report) Len() int {
	return len(r.summaries)
}

// Get returns the summary for email
func (r *Report) Get(email string) (models.CommitterSummary, bool) {
	s, ok := r.summaries[email]
	return s, ok
}

// Committers returns all summaries ordered by email
func (r *Report) Committers() []models.CommitterSummary {
	out := make([]models.CommitterSummary, 0, len(r.summaries))
	for _, s := range r.summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Email < out[j].Email
	})
	return out
}

// Commits returns the total number of commits the report was built from
func (r *Report) Commits() int {
	total := 0
	for _, s := range r.summaries {
		total += s.Commits
	}
	return total
}

package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mgutz/ansi"
	"github.com/stretchr/testify/assert"

	"commitscore/pkg/models"
)

func TestProgressObserve(t *testing.T) {
	withoutColor(t)

	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.Observe(1, models.Commit{
		Hash:        "0123456789abcdef",
		AuthorEmail: "alice@x.com",
		Message:     "Add parser\n\nLonger body",
	}, models.AnalysisResult{PerformanceScore: 8, MaintainabilityScore: 7})

	assert.Equal(t, "[1] 01234567 alice@x.com Add parser perf=8.00 maint=7.00\n", buf.String())
}

func TestProgressHighlightsAuthor(t *testing.T) {
	original := supportsColor
	supportsColor = true
	t.Cleanup(func() { supportsColor = original })

	var buf bytes.Buffer
	NewProgress(&buf).Observe(1, models.Commit{Hash: "abc", AuthorEmail: "alice@x.com"},
		models.AnalysisResult{})

	assert.Contains(t, buf.String(), ansi.Color("alice@x.com", "default+b"))
}

func TestProgressTruncatesSubject(t *testing.T) {
	withoutColor(t)

	var buf bytes.Buffer
	NewProgress(&buf).Observe(2, models.Commit{
		Hash:    "abc",
		Message: strings.Repeat("x", 80),
	}, models.AnalysisResult{})

	assert.Contains(t, buf.String(), strings.Repeat("x", 47)+"...")
	assert.NotContains(t, buf.String(), strings.Repeat("x", 48))
}

func TestProgressFinish(t *testing.T) {
	withoutColor(t)

	var buf bytes.Buffer
	p := NewProgress(&buf)
	p.Observe(1, models.Commit{Hash: "a"}, models.AnalysisResult{})
	p.Observe(2, models.Commit{Hash: "b"}, models.AnalysisResult{})
	buf.Reset()

	p.Finish()
	assert.True(t, strings.HasPrefix(buf.String(), "✓ Scored 2 commits in "))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
}

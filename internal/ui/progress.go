package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"commitscore/pkg/models"
)

// Progress prints one line per scored commit. Its Observe method matches the
// analyzer observer signature.
type Progress struct {
	w         io.Writer
	startTime time.Time
	mu        sync.Mutex
	count     int
}

// NewProgress creates a progress printer writing to w
func NewProgress(w io.Writer) *Progress {
	return &Progress{
		w:         w,
		startTime: time.Now(),
	}
}

// Observe reports a scored commit
func (p *Progress) Observe(index int, commit models.Commit, result models.AnalysisResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count = index

	subject := firstLine(commit.Message)
	if len(subject) > 50 {
		subject = subject[:47] + "..."
	}

	fmt.Fprintf(p.w, "%s %s %s %s perf=%.2f maint=%.2f\n",
		ColorProgress(fmt.Sprintf("[%d]", index)),
		ColorDim(commit.ShortHash()),
		ColorBold(commit.AuthorEmail),
		subject,
		result.PerformanceScore,
		result.MaintainabilityScore,
	)
}

// Finish prints the closing summary line
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "%s Scored %d commits in %s\n",
		ColorSuccess("✓"),
		p.count,
		formatDuration(time.Since(p.startTime)),
	)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

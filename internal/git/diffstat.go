package git

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// FileStat holds the line counts for one changed path. Binary paths carry
// blob sizes in bytes instead of line counts.
type FileStat struct {
	Name      string
	Additions int
	Deletions int
	Binary    bool
	OldSize   int64
	NewSize   int64
}

const (
	minGraphWidth = 10
	minNameWidth  = 10
	binaryMarker  = "Bin"
)

// RenderDiffStat renders stats as a full diffstat report: one line per path
// with its change count and a +/- graph, followed by a summary line. Lines
// are kept within width columns when width is positive.
func RenderDiffStat(stats []FileStat, width int) string {
	var b strings.Builder

	maxName, maxChange := 0, 0
	hasBinary := false
	for _, s := range stats {
		if w := runewidth.StringWidth(s.Name); w > maxName {
			maxName = w
		}
		if s.Binary {
			hasBinary = true
			continue
		}
		if c := s.Additions + s.Deletions; c > maxChange {
			maxChange = c
		}
	}

	numberWidth := len(strconv.Itoa(maxChange))
	if hasBinary && numberWidth < len(binaryMarker) {
		numberWidth = len(binaryMarker)
	}

	nameWidth := maxName
	graphWidth := maxChange
	if width > 0 {
		// " " name " | " number " " graph
		fixed := 1 + 3 + numberWidth + 1
		if nameWidth+fixed+graphWidth > width {
			graphWidth = width - fixed - nameWidth
			if graphWidth < minGraphWidth {
				graphWidth = minGraphWidth
				nameWidth = width - fixed - graphWidth
				if nameWidth < minNameWidth {
					nameWidth = minNameWidth
				}
			}
			if graphWidth > maxChange {
				graphWidth = maxChange
			}
		}
	}

	insertions, deletions := 0, 0
	for _, s := range stats {
		name := truncateName(s.Name, nameWidth)
		b.WriteString(" ")
		b.WriteString(runewidth.FillRight(name, nameWidth))
		b.WriteString(" | ")

		if s.Binary {
			b.WriteString(fmt.Sprintf("%*s", numberWidth, binaryMarker))
			if s.OldSize != 0 || s.NewSize != 0 {
				b.WriteString(fmt.Sprintf(" %d -> %d bytes", s.OldSize, s.NewSize))
			}
			b.WriteString("\n")
			continue
		}

		insertions += s.Additions
		deletions += s.Deletions

		total := s.Additions + s.Deletions
		b.WriteString(fmt.Sprintf("%*d", numberWidth, total))
		if total > 0 {
			add, del := scaleChanges(s.Additions, s.Deletions, graphWidth, maxChange)
			b.WriteString(" ")
			b.WriteString(strings.Repeat("+", add))
			b.WriteString(strings.Repeat("-", del))
		}
		b.WriteString("\n")
	}

	b.WriteString(summaryLine(len(stats), insertions, deletions))
	b.WriteString("\n")

	return b.String()
}

// scaleChanges fits the +/- graph of one path into graphWidth columns
func scaleChanges(add, del, graphWidth, maxChange int) (int, int) {
	if maxChange <= graphWidth {
		return add, del
	}

	total := scaleLinear(add+del, graphWidth, maxChange)
	if total < 2 && add > 0 && del > 0 {
		total = 2
	}
	if add < del {
		add = scaleLinear(add, graphWidth, maxChange)
		return add, total - add
	}
	del = scaleLinear(del, graphWidth, maxChange)
	return total - del, del
}

// scaleLinear keeps any non-zero count visible as at least one column
func scaleLinear(n, width, maxChange int) int {
	if n == 0 || maxChange == 0 {
		return 0
	}
	return 1 + (n*(width-1))/maxChange
}

// truncateName keeps the tail of name within width display columns,
// marking the cut with "..."
func truncateName(name string, width int) string {
	if runewidth.StringWidth(name) <= width {
		return name
	}

	prefix := "..."
	if width <= len(prefix) {
		prefix = ""
	}

	runes := []rune(name)
	used, start := len(prefix), len(runes)
	for start > 0 {
		w := runewidth.RuneWidth(runes[start-1])
		if used+w > width {
			break
		}
		used += w
		start--
	}
	return prefix + string(runes[start:])
}

func summaryLine(files, insertions, deletions int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(" %d file%s changed", files, plural(files)))
	if insertions > 0 || deletions == 0 {
		b.WriteString(fmt.Sprintf(", %d insertion%s(+)", insertions, plural(insertions)))
	}
	if deletions > 0 || insertions == 0 {
		b.WriteString(fmt.Sprintf(", %d deletion%s(-)", deletions, plural(deletions)))
	}
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

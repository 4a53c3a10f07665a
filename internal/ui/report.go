package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"commitscore/pkg/models"
)

// Summaries is what the report renderers consume
type Summaries interface {
	Committers() []models.CommitterSummary
}

// RenderText writes one block per committer:
//
//	Committer: <name> <<email>>
//	  Performance Score: <mean>
//	  Maintainability Score: <mean>
//
// The output is plain text so it stays stable when piped.
func RenderText(w io.Writer, report Summaries) error {
	for _, c := range report.Committers() {
		if _, err := fmt.Fprintf(w, "Committer: %s <%s>\n  Performance Score: %.2f\n  Maintainability Score: %.2f\n\n",
			c.Name, c.Email, c.Performance, c.Maintainability); err != nil {
			return err
		}
	}
	return nil
}

// RenderTable writes the report as a table with a totals footer
func RenderTable(w io.Writer, report Summaries) {
	committers := report.Committers()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Committer", "Email", "Commits", "Performance", "Maintainability"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	total := 0
	for _, c := range committers {
		total += c.Commits
		table.Append([]string{
			c.Name,
			c.Email,
			fmt.Sprintf("%d", c.Commits),
			scoreString(c.Performance),
			scoreString(c.Maintainability),
		})
	}

	table.SetFooter([]string{"", fmt.Sprintf("%d committers", len(committers)), fmt.Sprintf("%d", total), "", ""})
	table.Render()
}

// scoreString colors a score by band: 7 and above good, below 4 poor
func scoreString(score float64) string {
	s := fmt.Sprintf("%.2f", score)
	switch {
	case score >= 7:
		return color.GreenString(s)
	case score < 4:
		return color.RedString(s)
	default:
		return color.YellowString(s)
	}
}

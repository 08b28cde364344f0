package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/execution"
)

// Theme colors (Catppuccin).
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	colorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}
)

type styles struct {
	title   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		success: lipgloss.NewStyle().Foreground(colorSuccess),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
		failure: lipgloss.NewStyle().Foreground(colorError),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
	}
}

var titleCaser = cases.Title(language.English)

// glyph renders the status marker of a step.
func (st styles) glyph(status compiler.StepStatus) string {
	switch status {
	case compiler.StatusApplied:
		return st.success.Render("+")
	case compiler.StatusSatisfied:
		return st.success.Render("✓")
	case compiler.StatusNeedsApply:
		return st.warning.Render("~")
	case compiler.StatusFailed:
		return st.failure.Render("✗")
	case compiler.StatusSkipped, compiler.StatusPending:
		return st.muted.Render("-")
	default:
		return st.warning.Render("?")
	}
}

func (s *Stashprov) heading(text string) {
	title := titleCaser.String(text)
	s.printf("\n%s\n%s\n\n", s.styles.title.Render(title), strings.Repeat("=", len(title)))
}

// PrintPlan outputs a human-readable plan summary. With explain set each
// step is followed by what it does and when it runs.
func (s *Stashprov) PrintPlan(plan *execution.Plan, explain bool) {
	summary := plan.Summary()
	s.heading("stash provisioning plan")

	s.printf("Steps: %d total, %d to apply, %d satisfied, %d skipped\n\n",
		summary.Total, summary.NeedsApply, summary.Satisfied, summary.Skipped)

	for _, entry := range plan.Entries() {
		s.printf("  %s %s\n", s.styles.glyph(entry.Status()), entry.Step().ID())
		switch {
		case entry.Error() != nil:
			s.printf("      %s\n", s.styles.failure.Render(entry.Error().Error()))
		case entry.Reason() != "":
			s.printf("      %s\n", s.styles.muted.Render(entry.Reason()))
		case !entry.Diff().IsEmpty():
			s.printf("      %s\n", entry.Diff().Summary())
		}
		if explain {
			s.printExplanation(entry.Step().Explain(compiler.NewExplainContext().WithVerbose(true)))
		}
	}

	if n := plan.Notifications(); len(n) > 0 {
		s.printf("\nAfter the run:\n")
		for _, notification := range n {
			s.printf("  • %s\n", notification)
		}
	}

	if !plan.HasChanges() {
		s.printf("\nNo changes needed. The host is up to date.\n")
		return
	}
	s.printf("\nRun 'stashprov apply' to execute this plan.\n")
}

func (s *Stashprov) printExplanation(e compiler.Explanation) {
	if e.IsEmpty() {
		return
	}
	s.printf("      %s\n", s.styles.muted.Render(e.Summary()))
	if e.Detail() != "" {
		s.printf("      %s\n", e.Detail())
	}
	if e.Condition() != "" {
		s.printf("      Runs when: %s\n", e.Condition())
	}
	for _, link := range e.DocLinks() {
		s.printf("      See: %s\n", link)
	}
}

// PrintResult outputs execution results.
func (s *Stashprov) PrintResult(result *execution.RunResult) {
	title := "execution results"
	if result.DryRun() {
		title = "dry run results"
	}
	s.heading(title)

	for _, w := range result.Warnings() {
		s.printf("  %s %s\n", s.styles.warning.Render("!"), w)
	}

	for _, res := range result.Results() {
		line := fmt.Sprintf("  %s %s", s.styles.glyph(res.Status()), res.StepID())
		switch res.Status() {
		case compiler.StatusFailed:
			line += ": " + s.styles.failure.Render(fmt.Sprint(res.Error()))
		case compiler.StatusSkipped, compiler.StatusPending:
			line += " " + s.styles.muted.Render("("+res.Reason()+")")
		case compiler.StatusNeedsApply:
			line += " " + s.styles.warning.Render("(needs apply)")
		}
		s.printf("%s\n", line)
	}

	if n := result.Notifications(); len(n) > 0 {
		s.printf("\nNotifications:\n")
		for _, nr := range n {
			state := s.styles.muted.Render("would run")
			switch {
			case nr.Err != nil:
				state = s.styles.failure.Render(nr.Err.Error())
			case nr.Dispatched:
				state = s.styles.success.Render("done")
			}
			s.printf("  • %s x%d: %s\n", nr.Notification, nr.Count, state)
		}
	}
	for _, q := range result.Discarded() {
		s.printf("  %s %s discarded\n", s.styles.muted.Render("-"), q.Notification)
	}

	sum := result.Summary()
	s.printf("\nSummary: %d applied, %d satisfied, %d skipped, %d failed, %d not run (%s, run %s)\n",
		sum.Applied, sum.Satisfied, sum.Skipped, sum.Failed, sum.Pending,
		result.Duration().Round(time.Millisecond), result.RunID())
}

// PrintValidation outputs a validation report.
func (s *Stashprov) PrintValidation(result *ValidationResult) {
	for _, info := range result.Info {
		s.printf("  %s %s\n", s.styles.muted.Render("i"), info)
	}
	for _, w := range result.Warnings {
		s.printf("  %s %s\n", s.styles.warning.Render("!"), w)
	}
	for _, e := range result.Errors {
		s.printf("  %s %s\n", s.styles.failure.Render("✗"), e)
	}
	if result.Valid() {
		s.printf("\n%s\n", s.styles.success.Render("Configuration is valid."))
	}
}

// printf writes to the output writer, ignoring errors.
func (s *Stashprov) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

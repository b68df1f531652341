package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/pretty"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

var (
	styleUp        = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B785")).Bold(true)
	styleFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e1244c")).Bold(true)
	styleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("#407FF8")).Bold(true)
	styleNotSet    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5D689C"))
	styleListItem  = lipgloss.NewStyle().Padding(0, 2)
)

var styleInfoBox = lipgloss.NewStyle().
	Padding(0, 1).
	Margin(1, 0).
	BorderStyle(lipgloss.RoundedBorder())

func prettyJSON(raw []byte) string {
	return string(pretty.Color(pretty.Pretty(raw), nil))
}

func targetLine(v domain.TargetView) string {
	if v.CheckedAt.IsZero() {
		return lipgloss.JoinHorizontal(lipgloss.Left,
			styleNotSet.Render("◼︎"), " ",
			styleHighlight.Render(v.Name), " ",
			styleNotSet.Render("not checked yet"),
		)
	}
	mark, state := styleUp.Render("▲"), styleUp.Render("up")
	if !v.OK {
		mark, state = styleFailed.Render("▼"), styleFailed.Render("down")
	}
	detail := fmt.Sprintf("%dms", v.LatencyMS)
	if v.StatusCode != nil {
		detail = fmt.Sprintf("%d, %s", *v.StatusCode, detail)
	}
	if v.Error != "" {
		detail += "; " + v.Error
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		mark, " ",
		styleHighlight.Render(v.Name), " (",
		state, "; ", detail, "; uptime=",
		fmt.Sprintf("%.2f%%", v.UptimePercentage), ")",
	)
}

func renderSnapshot(s domain.CycleSnapshot) string {
	var b strings.Builder
	for _, v := range s.Targets {
		b.WriteString(styleListItem.Render(targetLine(v)))
		b.WriteString("\n")
	}

	last, next := styleNotSet.Render("never"), styleNotSet.Render("not scheduled")
	if s.LastRunAt != nil {
		last = s.LastRunAt.Format(time.RFC3339)
	}
	if s.NextRunAt != nil {
		next = s.NextRunAt.Format(time.RFC3339)
	}
	lines := []string{
		fmt.Sprintf("%d up, %d down of %d targets (%.2f%% up)",
			s.Summary.TotalUp, s.Summary.TotalDown, s.Summary.TotalTargets, s.AggregateUptimePercentage),
		fmt.Sprintf("cycles run: %d, last: %s, next: %s", s.TotalCyclesRun, last, next),
	}
	if s.IsCycleInProgress {
		lines = append(lines, styleHighlight.Render("a cycle is in progress"))
	}
	b.WriteString(styleInfoBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return b.String()
}

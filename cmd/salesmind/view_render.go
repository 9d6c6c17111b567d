package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"salesmind/internal/audio"
	"salesmind/internal/insight"
	"salesmind/internal/notifications"
	"salesmind/internal/render"
	"salesmind/internal/workspace"
)

func renderView(out io.Writer, view workspace.View, colorize bool) {
	switch view.Mode {
	case workspace.ModeLoading:
		printSection(out, "Researching "+view.Company, colorize)
		renderProgress(out, view, colorize)
	case workspace.ModeResearch:
		printSection(out, "Research: "+view.Company, colorize)
		if view.Analysis != "" {
			fmt.Fprintln(out, view.Analysis)
			fmt.Fprintln(out)
		}
		renderCategories(out, view)
		if view.Panel.Visible {
			fmt.Fprintln(out)
			renderPanel(out, view, colorize)
		}
	default:
		printSection(out, "Search", colorize)
		fmt.Fprintln(out, "No research loaded. Run `salesmind search <company>`.")
	}
	renderNotices(out, view.Notices, colorize)
}

func renderProgress(out io.Writer, view workspace.View, colorize bool) {
	for _, stage := range view.Progress.Stages {
		kind := statusInfo
		if stage.Percent >= 100 {
			kind = statusOK
		}
		fmt.Fprintln(out, renderStatusLine(stage.Label, kind, strconv.Itoa(stage.Percent)+"%", colorize))
	}
}

func renderCategories(out io.Writer, view workspace.View) {
	if len(view.Categories) == 0 {
		fmt.Fprintln(out, "No research categories returned")
		return
	}
	rows := make([][]string, 0, len(view.Categories))
	for _, c := range view.Categories {
		rows = append(rows, []string{c.Key, c.Name, strconv.Itoa(c.InsightCount), c.Query})
	}
	fmt.Fprint(out, renderTable(
		[]string{"Node", "Category", "Insights", "Query"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintln(out)
}

func renderPanel(out io.Writer, view workspace.View, colorize bool) {
	panel := view.Panel
	printSection(out, panel.Title, colorize)
	if panel.Badge != "" {
		fmt.Fprintln(out, renderStatusLine("Found", statusInfo, panel.Badge, colorize))
	}
	if panel.Loading {
		fmt.Fprintln(out, renderStatusLine("Insight", statusInfo, "Generating...", colorize))
		return
	}
	if len(panel.Tabs) > 0 {
		tabs := make([]string, 0, len(panel.Tabs))
		for _, tab := range panel.Tabs {
			label := string(tab)
			if tab == panel.ActiveTab {
				label = "[" + label + "]"
			}
			tabs = append(tabs, label)
		}
		fmt.Fprintln(out, renderStatusLine("Tabs", statusInfo, strings.Join(tabs, " "), colorize))
	}
	if panel.ActiveTab == insight.TabOpportunity && panel.Opportunity != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, panel.Opportunity)
	} else {
		renderResearchItems(out, panel)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderStatusLine("Audio", audioKind(view.Audio), audioDetail(view.Audio), colorize))
	if view.Transcript != "" {
		fmt.Fprintln(out, renderStatusLine("Transcript", statusInfo, view.Transcript, colorize))
	}
}

func renderResearchItems(out io.Writer, panel insight.Panel) {
	if len(panel.Research) == 0 {
		if panel.Empty != "" {
			fmt.Fprintln(out, panel.Empty)
		}
		return
	}
	rows := make([][]string, 0, len(panel.Research))
	for i, item := range panel.Research {
		rows = append(rows, []string{strconv.Itoa(i + 1), item.Title, item.Snippet, item.Link})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Title", "Snippet", "Link"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	fmt.Fprintln(out)
}

func audioKind(snap audio.Snapshot) statusKind {
	switch snap.Phase {
	case audio.PhasePlaying, audio.PhaseCompleted:
		return statusOK
	case audio.PhaseErrored:
		return statusError
	default:
		return statusInfo
	}
}

func audioDetail(snap audio.Snapshot) string {
	if snap.Phase == audio.PhasePlaying {
		return fmt.Sprintf("%s %d%%", snap.Phase, int(snap.Fraction*100))
	}
	return string(snap.Phase)
}

func renderNotices(out io.Writer, notices []notifications.Notice, colorize bool) {
	if len(notices) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, n := range notices {
		kind := statusInfo
		switch n.Level {
		case notifications.LevelSuccess:
			kind = statusOK
		case notifications.LevelWarning:
			kind = statusWarn
		case notifications.LevelError:
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine("Notice", kind, n.Message, colorize))
	}
}

func renderGraphTable(scene render.Snapshot) string {
	rows := make([][]string, 0, len(scene.Circles))
	for _, c := range scene.Circles {
		label := ""
		if len(c.Labels) > 0 {
			parts := make([]string, 0, len(c.Labels))
			for _, l := range c.Labels {
				parts = append(parts, l.Text)
			}
			label = strings.Join(parts, " ")
		}
		rows = append(rows, []string{
			c.ID,
			label,
			formatCoord(c.Center.X),
			formatCoord(c.Center.Y),
			formatCoord(c.Radius),
		})
	}
	return renderTable(
		[]string{"Node", "Label", "X", "Y", "Radius"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
	) + fmt.Sprintf("\n%d links, canvas %sx%s", len(scene.Links), formatCoord(scene.Width), formatCoord(scene.Height))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

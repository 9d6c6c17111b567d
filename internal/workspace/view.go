package workspace

import (
	"salesmind/internal/audio"
	"salesmind/internal/insight"
	"salesmind/internal/layout"
	"salesmind/internal/notifications"
	"salesmind/internal/progress"
)

// CategorySummary is one row of the research sidebar.
type CategorySummary struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Query        string `json:"query,omitempty"`
	InsightCount int    `json:"insight_count"`
}

// View is the complete display model consumed by every surface.
type View struct {
	Mode       Mode                   `json:"mode"`
	Company    string                 `json:"company,omitempty"`
	Analysis   string                 `json:"analysis,omitempty"`
	Width      float64                `json:"width"`
	Height     float64                `json:"height"`
	Categories []CategorySummary      `json:"categories,omitempty"`
	Panel      insight.Panel          `json:"panel"`
	Session    *insight.Session       `json:"session,omitempty"`
	Audio      audio.Snapshot         `json:"audio"`
	Transcript string                 `json:"transcript,omitempty"`
	Progress   progress.Snapshot      `json:"progress"`
	Notices    []notifications.Notice `json:"notices,omitempty"`
	Status     *StatusIndicator       `json:"status,omitempty"`
}

// View assembles the current display model.
func (w *Workspace) View() View {
	w.mu.RLock()
	v := View{
		Mode:    w.mode,
		Company: w.company,
		Width:   w.width,
		Height:  w.height,
	}
	if w.result != nil {
		v.Analysis = w.result.Analysis
		for _, node := range w.graph.Categories() {
			summary := CategorySummary{Key: node.ID, Name: node.Name, Color: node.Color}
			if node.Data != nil {
				summary.Query = node.Data.Query
				summary.InsightCount = len(node.Data.Insights)
			}
			v.Categories = append(v.Categories, summary)
		}
	}
	if w.status != nil {
		indicator := indicatorFor(*w.status)
		v.Status = &indicator
	}
	w.mu.RUnlock()

	v.Panel = w.controller.Panel()
	if session, ok := w.controller.Session(); ok {
		v.Session = &session
	}
	v.Audio = w.player.Snapshot()
	v.Transcript = v.Audio.Transcript
	if v.Transcript == "" {
		v.Transcript = v.Panel.Status
	}
	v.Progress = w.tracker.Snapshot()
	v.Notices = w.notifier.Active()
	return v
}

// Node returns a laid-out node by id.
func (w *Workspace) Node(id string) (layout.Node, error) {
	l, err := w.Layout()
	if err != nil {
		return layout.Node{}, err
	}
	node, ok := l.Node(id)
	if !ok {
		return layout.Node{}, ErrUnknownNode
	}
	return node, nil
}

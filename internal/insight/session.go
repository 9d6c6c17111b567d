package insight

import (
	"errors"
	"fmt"
	"time"

	"salesmind/internal/research"
)

// State is the controller's position in the click pipeline.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Tab names the panel views available after a successful insight.
type Tab string

const (
	TabOpportunity Tab = "opportunity"
	TabResearch    Tab = "research"
)

// Panel copy.
const (
	BadgeAnalyzing         = "Analyzing..."
	StatusPreparing        = "Preparing audio..."
	StatusInsightMissing   = "Failed to generate audio insight"
	StatusInsightFailed    = "Failed to load audio"
	NoInsightsMessage      = "No insights available for this category."
	DefaultVendor          = "LTIMindtree"
	fallbackNarrationShape = "%s benefits from %s solutions."
)

var (
	// ErrNoCondensedTab is returned when switching tabs on a panel that only
	// carries the raw research list.
	ErrNoCondensedTab = errors.New("panel has no condensed insight tab")
	// ErrUnknownTab is returned for tab names other than opportunity and research.
	ErrUnknownTab = errors.New("unknown panel tab")
)

// Session is the single insight record owned by the controller. Every click
// overwrites it in place.
type Session struct {
	Seq                    uint64 `json:"seq"`
	ActiveCategory         string `json:"active_category,omitempty"`
	CompanyName            string `json:"company_name,omitempty"`
	RawInsightText         string `json:"raw_insight_text,omitempty"`
	CondensedNarrationText string `json:"condensed_narration_text,omitempty"`
	NarrationFallback      bool   `json:"narration_fallback,omitempty"`
	State                  State  `json:"state"`
}

// Panel is the view model of the insight side panel.
type Panel struct {
	Visible     bool               `json:"visible"`
	Loading     bool               `json:"loading"`
	Category    string             `json:"category,omitempty"`
	Title       string             `json:"title,omitempty"`
	Color       string             `json:"color,omitempty"`
	Badge       string             `json:"badge,omitempty"`
	Tabs        []Tab              `json:"tabs,omitempty"`
	ActiveTab   Tab                `json:"active_tab,omitempty"`
	Opportunity string             `json:"opportunity,omitempty"`
	Research    []research.Insight `json:"research,omitempty"`
	Empty       string             `json:"empty,omitempty"`
	Status      string             `json:"status,omitempty"`
}

// Outcome summarises one finished click pipeline.
type Outcome struct {
	Seq         uint64
	Company     string
	Category    string
	State       State
	Insight     string
	Narration   string
	Fallback    bool
	FailureKind string
	Error       string
	Duration    time.Duration
	CompletedAt time.Time
}

func readyBadge(n int) string {
	return fmt.Sprintf("%d Research Items + 1 Opportunity", n)
}

func rawBadge(n int) string {
	return fmt.Sprintf("%d insights", n)
}

// FallbackNarration is the narration used when the condensed script is
// unavailable.
func FallbackNarration(company, vendor string) string {
	if vendor == "" {
		vendor = DefaultVendor
	}
	return fmt.Sprintf(fallbackNarrationShape, company, vendor)
}

func cloneInsights(in []research.Insight) []research.Insight {
	if len(in) == 0 {
		return nil
	}
	out := make([]research.Insight, len(in))
	copy(out, in)
	return out
}

func clonePanel(p Panel) Panel {
	p.Research = cloneInsights(p.Research)
	if p.Tabs != nil {
		tabs := make([]Tab, len(p.Tabs))
		copy(tabs, p.Tabs)
		p.Tabs = tabs
	}
	return p
}

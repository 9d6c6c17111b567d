package layout

import "salesmind/internal/research"

// DefaultColor is used for categories outside the palette.
const DefaultColor = "#7C3AED"

var palette = map[string]string{
	research.CategoryOverview:     "#7C3AED",
	research.CategoryNews:         "#EC4899",
	research.CategoryFinancials:   "#10B981",
	research.CategoryHiring:       "#F59E0B",
	research.CategoryTechnology:   "#3B82F6",
	research.CategoryAcquisitions: "#8B5CF6",
	research.CategoryCompetitors:  "#EF4444",
	research.CategoryChallenges:   "#6366F1",
}

// ColorFor returns the fill colour for a category key.
func ColorFor(key string) string {
	if c, ok := palette[key]; ok {
		return c
	}
	return DefaultColor
}

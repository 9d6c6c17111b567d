package research

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Well-known category keys. Unknown keys are still accepted and rendered.
const (
	CategoryOverview     = "overview"
	CategoryNews         = "news"
	CategoryFinancials   = "financials"
	CategoryHiring       = "hiring"
	CategoryTechnology   = "technology"
	CategoryAcquisitions = "acquisitions"
	CategoryCompetitors  = "competitors"
	CategoryChallenges   = "challenges"
)

// Insight is a single research finding shown in the research tab.
type Insight struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link,omitempty"`
}

// CategoryData holds the insights for one category in display order.
type CategoryData struct {
	Query    string    `json:"query,omitempty"`
	Insights []Insight `json:"insights"`
}

// Category pairs a category key with its data.
type Category struct {
	Key  string
	Data CategoryData
}

// Result is the immutable outcome of one search.
type Result struct {
	CompanyName string
	Categories  []Category
	Analysis    string
}

// ErrEmptyCompany is returned when a result carries no company name.
var ErrEmptyCompany = errors.New("research result has no company name")

// Keys returns the category keys in order.
func (r *Result) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		keys[i] = c.Key
	}
	return keys
}

// Category looks up a category by key.
func (r *Result) Category(key string) (CategoryData, bool) {
	if r == nil {
		return CategoryData{}, false
	}
	for _, c := range r.Categories {
		if c.Key == key {
			return c.Data, true
		}
	}
	return CategoryData{}, false
}

// InsightCount sums insights across all categories.
func (r *Result) InsightCount() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, c := range r.Categories {
		total += len(c.Data.Insights)
	}
	return total
}

// Validate reports structural problems with a decoded result.
func (r *Result) Validate() error {
	if r == nil || strings.TrimSpace(r.CompanyName) == "" {
		return ErrEmptyCompany
	}
	seen := make(map[string]struct{}, len(r.Categories))
	for _, c := range r.Categories {
		if strings.TrimSpace(c.Key) == "" {
			return errors.New("research result has a category with an empty key")
		}
		if _, dup := seen[c.Key]; dup {
			return fmt.Errorf("research result repeats category %q", c.Key)
		}
		seen[c.Key] = struct{}{}
	}
	return nil
}

type resultWire struct {
	CompanyName string          `json:"company_name"`
	Categories  json.RawMessage `json:"categories"`
	Analysis    string          `json:"ai_analysis,omitempty"`
}

// UnmarshalJSON decodes the backend search payload, keeping categories in
// document order. A repeated key keeps its first position and its last value.
func (r *Result) UnmarshalJSON(data []byte) error {
	var wire resultWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	categories, err := decodeOrderedCategories(wire.Categories)
	if err != nil {
		return fmt.Errorf("decode categories: %w", err)
	}
	r.CompanyName = wire.CompanyName
	r.Categories = categories
	r.Analysis = wire.Analysis
	return nil
}

// MarshalJSON writes categories as an object in slice order.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	name, err := json.Marshal(r.CompanyName)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"company_name":`)
	buf.Write(name)
	buf.WriteString(`,"categories":{`)
	for i, c := range r.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(c.Data)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(data)
	}
	buf.WriteByte('}')
	if r.Analysis != "" {
		analysis, err := json.Marshal(r.Analysis)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"ai_analysis":`)
		buf.Write(analysis)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeOrderedCategories(raw json.RawMessage) ([]Category, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var out []Category
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", tok)
		}
		var data CategoryData
		if err := dec.Decode(&data); err != nil {
			return nil, fmt.Errorf("category %q: %w", key, err)
		}
		if pos, dup := index[key]; dup {
			out[pos].Data = data
			continue
		}
		index[key] = len(out)
		out = append(out, Category{Key: key, Data: data})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

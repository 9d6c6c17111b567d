package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"salesmind/internal/research"
)

// Search runs the backend research pipeline for a company.
func (c *Client) Search(ctx context.Context, companyName string) (*research.Result, error) {
	const op = "backend search"
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, errors.New("backend search: company name required")
	}

	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodPost, "/api/search", map[string]string{"company_name": companyName}, &raw); err != nil {
		return nil, err
	}

	var probe struct {
		Categories json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || len(probe.Categories) == 0 {
		return nil, missing(op, "categories")
	}

	var result research.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &StatusError{Op: op, Message: "malformed research result: " + err.Error()}
	}
	if strings.TrimSpace(result.CompanyName) == "" {
		result.CompanyName = companyName
	}
	if err := result.Validate(); err != nil {
		return nil, &StatusError{Op: op, Message: err.Error()}
	}
	return &result, nil
}

// PanelRequest carries the inputs for a category insight.
type PanelRequest struct {
	Category    string             `json:"category"`
	CompanyName string             `json:"company_name"`
	Insights    []research.Insight `json:"insights"`
}

// PanelInsight asks the backend to condense a category's insights into one
// opportunity statement.
func (c *Client) PanelInsight(ctx context.Context, req PanelRequest) (string, error) {
	const op = "backend panel insight"
	if req.Insights == nil {
		req.Insights = []research.Insight{}
	}
	var resp struct {
		Insight *string `json:"insight"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/api/panel-insight/"+escapeSegment(req.Category), req, &resp); err != nil {
		return "", err
	}
	if resp.Insight == nil || strings.TrimSpace(*resp.Insight) == "" {
		return "", missing(op, "insight")
	}
	return strings.TrimSpace(*resp.Insight), nil
}

// NarrationRequest carries the inputs for a condensed narration script.
type NarrationRequest struct {
	Insight     string `json:"insight"`
	CompanyName string `json:"company_name"`
	Category    string `json:"category"`
}

// Narration asks the backend for a short text suitable for speech.
func (c *Client) Narration(ctx context.Context, req NarrationRequest) (string, error) {
	const op = "backend narration"
	var resp struct {
		Text *string `json:"tts_text"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/api/ultra-short-tts", req, &resp); err != nil {
		return "", err
	}
	if resp.Text == nil || strings.TrimSpace(*resp.Text) == "" {
		return "", missing(op, "tts_text")
	}
	return strings.TrimSpace(*resp.Text), nil
}

// Synthesize converts text to speech and returns the base64 audio payload.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	const op = "backend tts"
	var resp struct {
		Audio *string `json:"audio"`
	}
	if err := c.do(ctx, op, http.MethodPost, "/api/tts", map[string]string{"text": text}, &resp); err != nil {
		return "", err
	}
	if resp.Audio == nil || strings.TrimSpace(*resp.Audio) == "" {
		return "", missing(op, "audio")
	}
	return strings.TrimSpace(*resp.Audio), nil
}

package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Failures returns per-theme accuracy, weakest first. Zero values use server defaults.
func (c *Client) Failures(ctx context.Context, themeID string, top int) ([]FailureAnalytics, error) {
	q := url.Values{}
	if themeID != "" {
		q.Set("theme_id", themeID)
	}
	if top > 0 {
		q.Set("top", strconv.Itoa(top))
	}
	var out []FailureAnalytics
	err := c.do(ctx, http.MethodGet, "/api/analytics/failures", q, nil, &out)
	return out, err
}

type StudyPlanOptions struct {
	Threshold float64
	MaxThemes int
}

func (c *Client) StudyPlan(ctx context.Context, o StudyPlanOptions) (StudyPlan, error) {
	q := url.Values{}
	if o.Threshold > 0 {
		q.Set("threshold", strconv.FormatFloat(o.Threshold, 'f', -1, 64))
	}
	if o.MaxThemes > 0 {
		q.Set("max_themes", strconv.Itoa(o.MaxThemes))
	}
	var out StudyPlan
	err := c.do(ctx, http.MethodGet, "/api/analytics/study-plan", q, nil, &out)
	return out, err
}

func (c *Client) OverallStats(ctx context.Context) (OverallStats, error) {
	var out OverallStats
	err := c.do(ctx, http.MethodGet, "/api/analytics/overall-stats", nil, nil, &out)
	return out, err
}

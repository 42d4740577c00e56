package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Themes lists themes, optionally restricted to one part.
func (c *Client) Themes(ctx context.Context, part Part) ([]Theme, error) {
	q := url.Values{}
	if part != "" {
		q.Set("part", string(part))
	}
	var out []Theme
	err := c.do(ctx, http.MethodGet, "/api/themes", q, nil, &out)
	return out, err
}

func (c *Client) Theme(ctx context.Context, id string) (Theme, error) {
	var t Theme
	err := c.do(ctx, http.MethodGet, "/api/themes/"+url.PathEscape(id), nil, nil, &t)
	return t, err
}

func (c *Client) PracticalSets(ctx context.Context, skip, limit int) ([]PracticalSetSummary, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	var out []PracticalSetSummary
	err := c.do(ctx, http.MethodGet, "/api/practical-sets", q, nil, &out)
	return out, err
}

func (c *Client) PracticalSetsByTheme(ctx context.Context, themeID string) ([]PracticalSetSummary, error) {
	var out []PracticalSetSummary
	err := c.do(ctx, http.MethodGet, "/api/practical-sets/by-theme/"+url.PathEscape(themeID), nil, nil, &out)
	return out, err
}

func (c *Client) PracticalSet(ctx context.Context, id string) (PracticalSet, error) {
	var ps PracticalSet
	err := c.do(ctx, http.MethodGet, "/api/practical-sets/"+url.PathEscape(id), nil, nil, &ps)
	return ps, err
}

// RandomPracticalSet picks one set, optionally among the given themes.
func (c *Client) RandomPracticalSet(ctx context.Context, themeIDs ...string) (PracticalSet, error) {
	q := url.Values{}
	if len(themeIDs) > 0 {
		q.Set("theme_ids", strings.Join(themeIDs, ","))
	}
	var ps PracticalSet
	err := c.do(ctx, http.MethodGet, "/api/practical-sets/random/one", q, nil, &ps)
	return ps, err
}

package wordpress

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// FallbackPlatforms is the platform list used when no discovery strategy succeeds.
var FallbackPlatforms = []string{"Bigscreen VR", "Discord", "Twitch", "Youtube"}

// DefaultPlatform is the platform preselected for new experiments.
const DefaultPlatform = "Bigscreen VR"

// Platform is a venue an experiment is streamed on.
type Platform struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Color       string `json:"color"`
	IsDefault   bool   `json:"isDefault"`
}

var platformInfo = map[string]struct{ description, url, color string }{
	"Bigscreen VR": {"Virtual reality movie watching", "https://bigscreenvr.com", "#FF6B6B"},
	"Discord":      {"Voice chat during movies", "https://discord.com", "#5865F2"},
	"Twitch":       {"Live streaming platform", "https://twitch.tv", "#9146FF"},
	"Youtube":      {"Video sharing platform", "https://youtube.com", "#FF0000"},
	"Vimeo":        {"Video hosting platform", "https://vimeo.com", "#1AB7EA"},
}

// MapPlatformNames turns platform names into Platform records numbered from 1.
func MapPlatformNames(names []string) []Platform {
	platforms := make([]Platform, 0, len(names))
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		p := Platform{
			ID:          i + 1,
			Name:        name,
			Slug:        Slugify(name),
			Description: "Platform: " + name,
			Color:       "#6B7280",
			IsDefault:   name == DefaultPlatform,
		}
		if info, ok := platformInfo[name]; ok {
			p.Description = info.description
			p.URL = info.url
			p.Color = info.color
		}
		platforms = append(platforms, p)
	}
	return platforms
}

// Strategy is one named way of producing a value. Run reports false when
// the strategy has nothing to offer.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, bool)
}

// FirstSuccess runs strategies in order and returns the first value that
// succeeds along with the strategy name. When none do it returns fallback
// and the name "fallback".
func FirstSuccess[T any](ctx context.Context, strategies []Strategy[T], fallback T) (T, string) {
	for _, s := range strategies {
		if ctx.Err() != nil {
			break
		}
		if v, ok := s.Run(ctx); ok {
			return v, s.Name
		}
		slog.Debug("Strategy produced nothing", "strategy", s.Name)
	}
	return fallback, "fallback"
}

// PlatformStrategies returns the discovery strategies in the order they are tried.
func (c *Client) PlatformStrategies() []Strategy[[]string] {
	return []Strategy[[]string]{
		{Name: "pods-field", Run: c.platformsFromPodsField},
		{Name: "pods-fields", Run: c.platformsFromPodsFields},
		{Name: "existing-experiments", Run: c.platformsFromExperiments},
	}
}

// DiscoverPlatforms finds the configured event platforms and reports which
// strategy produced them.
func (c *Client) DiscoverPlatforms(ctx context.Context) ([]Platform, string) {
	names, source := FirstSuccess(ctx, c.PlatformStrategies(), FallbackPlatforms)
	if source == "fallback" {
		slog.Warn("Using fallback platform list")
	}
	return MapPlatformNames(names), source
}

func (c *Client) platformsFromPodsField(ctx context.Context) ([]string, bool) {
	var resp struct {
		Field struct {
			PickCustom string `json:"pick_custom"`
		} `json:"field"`
	}
	endpoint := c.siteURL + "/wp-json/pods/v1/pods/experiment/fields/event_location"
	if _, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		slog.Warn("Could not fetch pod field configuration", "error", err)
		return nil, false
	}
	names := splitPickCustom(resp.Field.PickCustom)
	return names, len(names) > 0
}

func (c *Client) platformsFromPodsFields(ctx context.Context) ([]string, bool) {
	var resp struct {
		Fields []struct {
			Name       string `json:"name"`
			PickCustom string `json:"pick_custom"`
		} `json:"fields"`
	}
	endpoint := c.siteURL + "/wp-json/pods/v1/fields"
	if _, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		slog.Warn("Could not fetch from Pods fields endpoint", "error", err)
		return nil, false
	}
	for _, f := range resp.Fields {
		if f.Name == "event_location" {
			names := splitPickCustom(f.PickCustom)
			return names, len(names) > 0
		}
	}
	return nil, false
}

func (c *Client) platformsFromExperiments(ctx context.Context) ([]string, bool) {
	list, err := c.ListPosts(ctx, PostTypeExperiments, ListOptions{PerPage: 10, Embed: true})
	if err != nil {
		slog.Warn("Could not fetch platforms from existing experiments", "error", err)
		return nil, false
	}

	seen := make(map[string]bool)
	var names []string
	for i := range list.Posts {
		for _, name := range list.Posts[i].Strings("event_location") {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, len(names) > 0
}

// splitPickCustom splits a Pods pick_custom value, one option per line.
// Lines may carry a "value|label" pair; the value is used.
func splitPickCustom(s string) []string {
	var names []string
	for _, line := range strings.Split(s, "\n") {
		value, _, _ := strings.Cut(line, "|")
		if value = strings.TrimSpace(value); value != "" {
			names = append(names, value)
		}
	}
	return names
}

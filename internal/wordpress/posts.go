package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Pods post types used by the experiment site.
const (
	PostTypeActors      = "actors"
	PostTypeDirectors   = "directors"
	PostTypeWriters     = "writers"
	PostTypeGenres      = "genres"
	PostTypeStudios     = "studios"
	PostTypeCountries   = "countries"
	PostTypeLanguages   = "languages"
	PostTypeMovies      = "movies"
	PostTypeExperiments = "experiments"
)

// StatusPublish is the default status for created posts.
const StatusPublish = "publish"

// Post is a post of any type. Pods custom fields are returned by the API
// as top-level properties and are kept in Fields alongside the standard ones.
type Post struct {
	ID            int
	Title         string
	Status        string
	Slug          string
	Link          string
	FeaturedMedia int
	Fields        map[string]any
}

// UnmarshalJSON keeps every property so custom fields survive decoding.
func (p *Post) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.setFields(raw)
	return nil
}

// postFromFields builds a Post from an already decoded object, as found in
// expanded Pods relationship fields.
func postFromFields(raw map[string]any) *Post {
	p := &Post{}
	p.setFields(raw)
	return p
}

func (p *Post) setFields(raw map[string]any) {
	p.Fields = raw
	p.ID = toInt(raw["id"])
	p.Status = toString(raw["status"])
	p.Slug = toString(raw["slug"])
	p.Link = toString(raw["link"])
	p.FeaturedMedia = toInt(raw["featured_media"])

	switch title := raw["title"].(type) {
	case map[string]any:
		p.Title = toString(title["rendered"])
	case string:
		p.Title = title
	}

	// expanded Pods relationships use the raw WP_Post field names
	if p.ID == 0 {
		p.ID = toInt(raw["ID"])
	}
	if p.Title == "" {
		p.Title = toString(raw["post_title"])
	}
}

// String returns a custom field as a string.
func (p *Post) String(key string) string {
	return toString(p.Fields[key])
}

// Int returns a custom field as an int. Numeric strings are parsed.
func (p *Post) Int(key string) int {
	return toInt(p.Fields[key])
}

// Float returns a custom field as a float64.
func (p *Post) Float(key string) float64 {
	switch v := p.Fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return 0
}

// Strings returns a custom field holding a list of strings, or a single string as a one-item list.
func (p *Post) Strings(key string) []string {
	switch v := p.Fields[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(toString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	}
	return nil
}

// IDs returns a relationship field as post IDs. Pods returns either bare
// IDs or expanded objects depending on the field configuration.
func (p *Post) IDs(key string) []int {
	var items []any
	switch v := p.Fields[key].(type) {
	case []any:
		items = v
	case nil:
		return nil
	default:
		items = []any{v}
	}

	ids := make([]int, 0, len(items))
	for _, item := range items {
		if id := relatedID(item); id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// PostInput is the payload for creating or updating a post. Meta is sent
// under "meta"; Fields are sent as top-level Pods properties.
type PostInput struct {
	Title         string
	Status        string
	Slug          string
	Content       string
	FeaturedMedia int
	Meta          map[string]any
	Fields        map[string]any
}

// MarshalJSON flattens Fields into the top-level object.
func (in PostInput) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(in.Fields)+6)
	for k, v := range in.Fields {
		out[k] = v
	}
	out["title"] = in.Title
	out["status"] = in.Status
	if in.Status == "" {
		out["status"] = StatusPublish
	}
	if in.Slug != "" {
		out["slug"] = in.Slug
	}
	if in.Content != "" {
		out["content"] = in.Content
	}
	if in.FeaturedMedia > 0 {
		out["featured_media"] = in.FeaturedMedia
	}
	if len(in.Meta) > 0 {
		out["meta"] = in.Meta
	}
	return json.Marshal(out)
}

// PostList is one page of posts plus the pagination headers.
type PostList struct {
	Posts      []Post
	Total      int
	TotalPages int
}

// ListOptions filters a post listing.
type ListOptions struct {
	Page    int
	PerPage int
	Search  string
	Embed   bool
}

// CreatePost creates a post of postType.
func (c *Client) CreatePost(ctx context.Context, postType string, in PostInput) (*Post, error) {
	var post Post
	if _, err := c.doJSON(ctx, http.MethodPost, c.apiEndpoint("/"+postType, nil), in, &post); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", postType, err)
	}
	return &post, nil
}

// UpdatePost replaces the given properties of an existing post.
func (c *Client) UpdatePost(ctx context.Context, postType string, id int, in PostInput) (*Post, error) {
	var post Post
	endpoint := c.apiEndpoint(fmt.Sprintf("/%s/%d", postType, id), nil)
	if _, err := c.doJSON(ctx, http.MethodPut, endpoint, in, &post); err != nil {
		return nil, fmt.Errorf("failed to update %s %d: %w", postType, id, err)
	}
	return &post, nil
}

// GetPost fetches a single post by ID, with embedded media.
func (c *Client) GetPost(ctx context.Context, postType string, id int) (*Post, error) {
	params := url.Values{}
	params.Set("_embed", "true")

	var post Post
	endpoint := c.apiEndpoint(fmt.Sprintf("/%s/%d", postType, id), params)
	if _, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &post); err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", postType, id, err)
	}
	return &post, nil
}

// DeletePost deletes a post. With force the post skips the trash.
func (c *Client) DeletePost(ctx context.Context, postType string, id int, force bool) error {
	params := url.Values{}
	if force {
		params.Set("force", "true")
	}
	endpoint := c.apiEndpoint(fmt.Sprintf("/%s/%d", postType, id), params)
	if _, err := c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", postType, id, err)
	}
	return nil
}

// ListPosts lists posts of postType, reading X-WP-Total and X-WP-TotalPages.
func (c *Client) ListPosts(ctx context.Context, postType string, opts ListOptions) (*PostList, error) {
	params := url.Values{}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Search != "" {
		params.Set("search", opts.Search)
	}
	if opts.Embed {
		params.Set("_embed", "true")
	}

	var posts []Post
	header, err := c.doJSON(ctx, http.MethodGet, c.apiEndpoint("/"+postType, params), nil, &posts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", postType, err)
	}
	if posts == nil {
		posts = []Post{}
	}

	return &PostList{
		Posts:      posts,
		Total:      headerInt(header, "X-WP-Total", len(posts)),
		TotalPages: headerInt(header, "X-WP-TotalPages", 1),
	}, nil
}

// SearchPostsByCustomField finds posts whose custom field key equals value.
func (c *Client) SearchPostsByCustomField(ctx context.Context, postType, key, value string) ([]Post, error) {
	params := url.Values{}
	params.Set("meta_key", key)
	params.Set("meta_value", value)
	params.Set("per_page", "10")

	var posts []Post
	if _, err := c.doJSON(ctx, http.MethodGet, c.apiEndpoint("/"+postType, params), nil, &posts); err != nil {
		return nil, fmt.Errorf("failed to search %s by %s: %w", postType, key, err)
	}
	return posts, nil
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func toInt(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(val))
		return n
	}
	return 0
}

func relatedID(v any) int {
	if m, ok := v.(map[string]any); ok {
		if id := toInt(m["id"]); id > 0 {
			return id
		}
		return toInt(m["ID"])
	}
	return toInt(v)
}

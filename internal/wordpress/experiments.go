package wordpress

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

// Experiment is one bad movie night event.
type Experiment struct {
	ID            int        `json:"id"`
	Number        int        `json:"number"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Date          string     `json:"date"`
	HostID        int        `json:"hostId,omitempty"`
	HostName      string     `json:"hostName,omitempty"`
	Platforms     []Platform `json:"platforms"`
	Notes         string     `json:"notes"`
	PosterImageID int        `json:"posterImageId,omitempty"`
	PosterImage   string     `json:"posterImage,omitempty"`
	Status        string     `json:"status"`
	Movies        []Movie    `json:"movies"`
}

// ExperimentList is one page of experiments.
type ExperimentList struct {
	Experiments []Experiment `json:"experiments"`
	Total       int          `json:"total"`
	TotalPages  int          `json:"totalPages"`
}

type experimentFields struct {
	Number    string   `wp:"experiment_number"`
	Date      string   `wp:"event_date,omitempty"`
	Notes     string   `wp:"experiment_notes"`
	Image     int      `wp:"experiment_image,omitempty"`
	Host      []int    `wp:"event_host,omitempty"`
	Platforms []string `wp:"event_location,omitempty"`
	Movies    []int    `wp:"experiment_movies,omitempty"`
}

// FormatExperimentNumber zero-pads an experiment number to three digits.
func FormatExperimentNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}

// ExperimentInput builds the post body for exp, defaulting the title and
// slug from its number.
func ExperimentInput(exp *Experiment) PostInput {
	number := FormatExperimentNumber(exp.Number)
	fields := experimentFields{
		Number: number,
		Date:   exp.Date,
		Notes:  exp.Notes,
		Image:  exp.PosterImageID,
	}
	if exp.HostID > 0 {
		fields.Host = []int{exp.HostID}
	}
	for _, p := range exp.Platforms {
		fields.Platforms = append(fields.Platforms, p.Name)
	}
	for _, m := range exp.Movies {
		fields.Movies = append(fields.Movies, m.ID)
	}

	in := PostInput{
		Title:         exp.Title,
		Slug:          exp.Slug,
		Status:        StatusPublish,
		FeaturedMedia: exp.PosterImageID,
		Fields:        FieldsOf(fields),
	}
	if in.Title == "" {
		in.Title = "Experiment #" + number
	}
	if in.Slug == "" {
		in.Slug = "experiment-" + number
	}
	return in
}

// SaveExperiment creates the experiment, or updates it when exp.ID is set.
func (c *Client) SaveExperiment(ctx context.Context, exp *Experiment) (*Experiment, error) {
	in := ExperimentInput(exp)

	var (
		post *Post
		err  error
	)
	if exp.ID > 0 {
		post, err = c.UpdatePost(ctx, PostTypeExperiments, exp.ID, in)
	} else {
		post, err = c.CreatePost(ctx, PostTypeExperiments, in)
	}
	if err != nil {
		return nil, err
	}

	saved := ExperimentFromPost(post)
	return &saved, nil
}

// GetExperiment fetches an experiment with its embedded media.
func (c *Client) GetExperiment(ctx context.Context, id int) (*Experiment, error) {
	post, err := c.GetPost(ctx, PostTypeExperiments, id)
	if err != nil {
		return nil, err
	}
	exp := ExperimentFromPost(post)
	return &exp, nil
}

// ListExperiments returns one page of experiments, newest first.
func (c *Client) ListExperiments(ctx context.Context, page, perPage int) (*ExperimentList, error) {
	list, err := c.ListPosts(ctx, PostTypeExperiments, ListOptions{Page: page, PerPage: perPage, Embed: true})
	if err != nil {
		return nil, err
	}

	result := &ExperimentList{
		Experiments: make([]Experiment, 0, len(list.Posts)),
		Total:       list.Total,
		TotalPages:  list.TotalPages,
	}
	for i := range list.Posts {
		result.Experiments = append(result.Experiments, ExperimentFromPost(&list.Posts[i]))
	}
	return result, nil
}

// DeleteExperiment permanently deletes an experiment, bypassing the trash.
func (c *Client) DeleteExperiment(ctx context.Context, id int) error {
	return c.DeletePost(ctx, PostTypeExperiments, id, true)
}

// NextExperimentNumber returns one more than the highest experiment number
// on the site. It falls back to 1 when the listing fails.
func (c *Client) NextExperimentNumber(ctx context.Context) int {
	list, err := c.ListPosts(ctx, PostTypeExperiments, ListOptions{PerPage: 100})
	if err != nil {
		slog.Warn("Failed to list experiments for numbering", "error", err)
		return 1
	}

	highest := 0
	for i := range list.Posts {
		if n := parseExperimentNumber(list.Posts[i].String("experiment_number")); n > highest {
			highest = n
		}
	}
	return highest + 1
}

// ExperimentFromPost converts an experiments post, including expanded
// host and movie relationships.
func ExperimentFromPost(p *Post) Experiment {
	number := p.String("experiment_number")
	exp := Experiment{
		ID:        p.ID,
		Number:    parseExperimentNumber(number),
		Title:     p.Title,
		Slug:      p.Slug,
		Date:      p.String("event_date"),
		Notes:     p.String("experiment_notes"),
		Status:    p.Status,
		Platforms: MapPlatformNames(p.Strings("event_location")),
		Movies:    []Movie{},
	}
	if exp.Slug == "" && number != "" {
		exp.Slug = "experiment-" + number
	}

	if hosts, ok := p.Fields["event_host"].([]any); ok && len(hosts) > 0 {
		exp.HostID = relatedID(hosts[0])
		if host, ok := hosts[0].(map[string]any); ok {
			exp.HostName = toString(host["display_name"])
		}
	}

	switch img := p.Fields["experiment_image"].(type) {
	case float64, string:
		exp.PosterImageID = toInt(img)
	default:
		exp.PosterImage = mediaURL(img)
		if m, ok := img.(map[string]any); ok {
			exp.PosterImageID = relatedID(m)
		}
	}
	if exp.PosterImage == "" {
		exp.PosterImage = embeddedMediaURL(p)
	}

	if movies, ok := p.Fields["experiment_movies"].([]any); ok {
		for _, item := range movies {
			if m, ok := item.(map[string]any); ok {
				exp.Movies = append(exp.Movies, MovieFromPost(postFromFields(m)))
				continue
			}
			if id := toInt(item); id > 0 {
				exp.Movies = append(exp.Movies, Movie{ID: id})
			}
		}
	}

	return exp
}

func parseExperimentNumber(s string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	n, _ := strconv.Atoi(digits)
	return n
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lepinkainen/bmn/internal/experiment"
	"github.com/lepinkainen/bmn/internal/processor"
	"github.com/lepinkainen/bmn/internal/wordpress"
)

// ExperimentCmd groups the experiment commands
type ExperimentCmd struct {
	Create ExperimentCreateCmd `cmd:"" help:"Create an experiment from a YAML draft"`
	Update ExperimentUpdateCmd `cmd:"" help:"Merge a YAML draft onto a saved experiment"`
	Show   ExperimentShowCmd   `cmd:"" help:"Show one experiment"`
	List   ExperimentListCmd   `cmd:"" help:"List experiments"`
	Delete ExperimentDeleteCmd `cmd:"" help:"Delete an experiment"`
}

// ExperimentCreateCmd processes a draft's movies and saves the experiment
type ExperimentCreateCmd struct {
	File string `short:"f" help:"Draft file" type:"existingfile" required:""`
}

func (c *ExperimentCreateCmd) Run(ctx context.Context) error {
	draft, err := experiment.LoadDraft(c.File)
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close application", "error", err)
		}
	}()

	exp, err := a.experiments.Create(ctx, draft, logProcessing)
	if err != nil {
		return err
	}

	printExperiment(exp)
	if len(exp.Movies) < len(draft.Movies) {
		slog.Warn("Some movies could not be processed", "requested", len(draft.Movies), "created", len(exp.Movies))
	}
	return nil
}

// ExperimentUpdateCmd merges a draft onto an existing experiment. Draft
// fields left empty keep their saved values.
type ExperimentUpdateCmd struct {
	ID   int    `arg:"" help:"Experiment post ID"`
	File string `short:"f" help:"Draft file" type:"existingfile" required:""`
}

func (c *ExperimentUpdateCmd) Run(ctx context.Context) error {
	draft, err := experiment.LoadDraft(c.File)
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close application", "error", err)
		}
	}()

	exp, err := a.experiments.Update(ctx, c.ID, draft, logProcessing)
	if err != nil {
		return err
	}
	printExperiment(exp)
	return nil
}

// ExperimentShowCmd prints one experiment with its movies
type ExperimentShowCmd struct {
	ID int `arg:"" help:"Experiment post ID"`
}

func (c *ExperimentShowCmd) Run(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close application", "error", err)
		}
	}()

	exp, err := a.site.GetExperiment(ctx, c.ID)
	if err != nil {
		return err
	}
	printExperiment(exp)
	return nil
}

// ExperimentListCmd prints a page of experiments
type ExperimentListCmd struct {
	Page    int `help:"Page number" default:"1"`
	PerPage int `help:"Experiments per page" default:"20"`
}

func (c *ExperimentListCmd) Run(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close application", "error", err)
		}
	}()

	list, err := a.site.ListExperiments(ctx, c.Page, c.PerPage)
	if err != nil {
		return err
	}
	for _, exp := range list.Experiments {
		fmt.Fprintf(stdout, "%6d  #%s  %-10s  %s\n", exp.ID, wordpress.FormatExperimentNumber(exp.Number), exp.Date, exp.Title)
	}
	fmt.Fprintf(stdout, "page %d of %d (%d experiments)\n", c.Page, list.TotalPages, list.Total)
	return nil
}

// ExperimentDeleteCmd permanently deletes an experiment post
type ExperimentDeleteCmd struct {
	ID  int  `arg:"" help:"Experiment post ID"`
	Yes bool `short:"y" help:"Confirm the deletion"`
}

func (c *ExperimentDeleteCmd) Run(ctx context.Context) error {
	if !c.Yes {
		return errors.New("refusing to delete without --yes")
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close application", "error", err)
		}
	}()

	if err := a.site.DeleteExperiment(ctx, c.ID); err != nil {
		return err
	}
	slog.Info("Deleted experiment", "id", c.ID)
	return nil
}

func printExperiment(exp *wordpress.Experiment) {
	fmt.Fprintf(stdout, "Experiment #%s: %s\n", wordpress.FormatExperimentNumber(exp.Number), exp.Title)
	fmt.Fprintf(stdout, "  id:        %d\n", exp.ID)
	if exp.Date != "" {
		fmt.Fprintf(stdout, "  date:      %s\n", exp.Date)
	}
	if exp.HostName != "" {
		fmt.Fprintf(stdout, "  host:      %s\n", exp.HostName)
	}
	if len(exp.Platforms) > 0 {
		names := make([]string, 0, len(exp.Platforms))
		for _, p := range exp.Platforms {
			names = append(names, p.Name)
		}
		fmt.Fprintf(stdout, "  platforms: %s\n", strings.Join(names, ", "))
	}
	for _, m := range exp.Movies {
		fmt.Fprintf(stdout, "  - %s [tmdb:%d, post:%d]\n", m.Title, m.TMDBID, m.ID)
	}
}

func logProcessing(p processor.Progress) {
	switch p.Status {
	case processor.StatusError:
		slog.Warn("Failed to process movie", "movie", p.CurrentMovie, "error", p.Error)
	case processor.StatusComplete:
		slog.Info("Processing complete", "total", p.Total)
	default:
		slog.Info("Processing movie", "movie", p.CurrentMovie, "current", p.Current, "total", p.Total)
	}
}

// Package prefetch enriches movies as soon as they are picked, so that the
// later processing run finds the snapshot ready.
package prefetch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/lepinkainen/bmn/internal/enrichment"
)

// Status is the coarse state reported with prefetch progress.
type Status string

const (
	StatusFetching  Status = "fetching"
	StatusEnriching Status = "enriching"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

// Progress wraps enrichment progress with the movie being prefetched.
type Progress struct {
	Step         string `json:"step"`
	Progress     int    `json:"progress"`
	Total        int    `json:"total"`
	CurrentMovie string `json:"currentMovie"`
	Status       Status `json:"status"`
}

// ProgressFunc receives prefetch updates. It may be nil.
type ProgressFunc func(Progress)

// EnrichedSelection is a selection together with the outcome of its prefetch.
type EnrichedSelection struct {
	enrichment.Selection
	IsEnriched bool                 `json:"isEnriched"`
	Data       *enrichment.Snapshot `json:"enrichmentData,omitempty"`
	Error      string               `json:"enrichmentError,omitempty"`
}

// Enricher produces snapshots. *enrichment.Engine satisfies it.
type Enricher interface {
	Enrich(ctx context.Context, sel enrichment.Selection, progress enrichment.ProgressFunc) (*enrichment.Snapshot, error)
}

// Cache holds snapshots by TMDB movie ID for the lifetime of the process.
// Entries never expire; callers clear them explicitly. Concurrent prefetches
// of one ID share a single enrichment.
type Cache struct {
	enricher Enricher

	mu      sync.Mutex
	entries map[int]*enrichment.Snapshot
	group   singleflight.Group
}

// New creates an empty cache enriching through enricher.
func New(enricher Enricher) *Cache {
	return &Cache{
		enricher: enricher,
		entries:  make(map[int]*enrichment.Snapshot),
	}
}

// Prefetch returns the cached snapshot for sel, enriching it first when
// absent. Failures are reported in the result and never cached, so the next
// call tries again.
func (c *Cache) Prefetch(ctx context.Context, sel enrichment.Selection, progress ProgressFunc) EnrichedSelection {
	if snap := c.Get(sel.TMDBID); snap != nil {
		return EnrichedSelection{Selection: sel, IsEnriched: true, Data: snap}
	}

	out := &relay{progress: progress}
	defer out.detach()
	report := func(step string, n, total int, status Status) {
		out.send(Progress{Step: step, Progress: n, Total: total, CurrentMovie: sel.Title, Status: status})
	}

	report(fmt.Sprintf("Pre-fetching data for %q", sel.Title), 1, 2, StatusFetching)

	// The shared enrichment outlives the caller that starts it, so callers
	// joining it are unaffected when that caller goes away. Only the starting
	// caller sees stage updates.
	enrichCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.Itoa(sel.TMDBID), func() (any, error) {
		if snap := c.Get(sel.TMDBID); snap != nil {
			return snap, nil
		}

		report(fmt.Sprintf("Enriching data for %q", sel.Title), 2, 2, StatusEnriching)
		snap, err := c.enricher.Enrich(enrichCtx, sel, func(p enrichment.Progress) {
			report(fmt.Sprintf("%s for %q", p.Step, sel.Title), p.Progress, p.Total, StatusEnriching)
		})
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[sel.TMDBID] = snap
		c.mu.Unlock()
		return snap, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}

	if res.Err != nil {
		slog.Error("Failed to pre-fetch movie", "title", sel.Title, "tmdb_id", sel.TMDBID, "error", res.Err)
		report(fmt.Sprintf("Pre-fetch failed for %q", sel.Title), 2, 2, StatusError)
		return EnrichedSelection{Selection: sel, Error: res.Err.Error()}
	}

	slog.Debug("Pre-fetched movie", "title", sel.Title, "tmdb_id", sel.TMDBID, "shared", res.Shared)
	report(fmt.Sprintf("Pre-fetch complete for %q", sel.Title), 2, 2, StatusComplete)
	return EnrichedSelection{Selection: sel, IsEnriched: true, Data: res.Val.(*enrichment.Snapshot)}
}

// relay forwards progress to one caller until that caller returns.
type relay struct {
	mu       sync.Mutex
	progress ProgressFunc
}

func (r *relay) send(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		r.progress(p)
	}
}

func (r *relay) detach() {
	r.mu.Lock()
	r.progress = nil
	r.mu.Unlock()
}

// IsCached reports whether a snapshot for id is held.
func (c *Cache) IsCached(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

// Get returns the snapshot for id, or nil. It never enriches.
func (c *Cache) Get(id int) *enrichment.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[id]
}

// Clear drops every snapshot.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Remove drops the snapshot for id.
func (c *Cache) Remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// IDs returns the cached movie IDs in ascending order.
func (c *Cache) IDs() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

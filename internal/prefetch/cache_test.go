package prefetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lepinkainen/bmn/internal/enrichment"
	"github.com/lepinkainen/bmn/internal/tmdb/tmdbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fightClub = enrichment.Selection{TMDBID: tmdbtest.FightClubID, Title: "Fight Club", ReleaseDate: "1999-10-15"}

func newCatalogCache(t *testing.T) (*Cache, *tmdbtest.Catalog) {
	t.Helper()

	catalog := tmdbtest.NewCatalog()
	catalog.AddMovie(tmdbtest.FightClub(25))
	return New(enrichment.NewEngine(catalog, enrichment.DefaultPolicy())), catalog
}

func TestPrefetch_EnrichesOnce(t *testing.T) {
	cache, catalog := newCatalogCache(t)

	first := cache.Prefetch(context.Background(), fightClub, nil)
	require.True(t, first.IsEnriched)
	require.NotNil(t, first.Data)
	assert.Empty(t, first.Error)
	assert.Equal(t, fightClub, first.Selection)
	assert.Len(t, first.Data.Actors, 10)

	second := cache.Prefetch(context.Background(), fightClub, nil)
	require.True(t, second.IsEnriched)
	assert.Same(t, first.Data, second.Data)
	assert.Equal(t, 1, catalog.DetailCalls(tmdbtest.FightClubID))
}

func TestPrefetch_Progress(t *testing.T) {
	cache, _ := newCatalogCache(t)

	var updates []Progress
	cache.Prefetch(context.Background(), fightClub, func(p Progress) {
		updates = append(updates, p)
	})

	require.Len(t, updates, 2+enrichment.TotalStages+1+1)
	assert.Equal(t, Progress{Step: `Pre-fetching data for "Fight Club"`, Progress: 1, Total: 2, CurrentMovie: "Fight Club", Status: StatusFetching}, updates[0])
	assert.Equal(t, Progress{Step: `Enriching data for "Fight Club"`, Progress: 2, Total: 2, CurrentMovie: "Fight Club", Status: StatusEnriching}, updates[1])
	assert.Equal(t, Progress{Step: enrichment.StageDetails + ` for "Fight Club"`, Progress: 1, Total: enrichment.TotalStages, CurrentMovie: "Fight Club", Status: StatusEnriching}, updates[2])
	last := updates[len(updates)-1]
	assert.Equal(t, StatusComplete, last.Status)
	assert.Equal(t, `Pre-fetch complete for "Fight Club"`, last.Step)

	updates = nil
	cache.Prefetch(context.Background(), fightClub, func(p Progress) {
		updates = append(updates, p)
	})
	assert.Empty(t, updates, "cached selections report nothing")
}

func TestPrefetch_FailureNotCached(t *testing.T) {
	cache, catalog := newCatalogCache(t)
	catalog.FailMovie(tmdbtest.FightClubID, errors.New("service unavailable"))

	var last Progress
	result := cache.Prefetch(context.Background(), fightClub, func(p Progress) { last = p })
	assert.False(t, result.IsEnriched)
	assert.Nil(t, result.Data)
	assert.Contains(t, result.Error, "service unavailable")
	assert.Equal(t, StatusError, last.Status)
	assert.False(t, cache.IsCached(tmdbtest.FightClubID))

	cache.Prefetch(context.Background(), fightClub, nil)
	assert.Equal(t, 2, catalog.DetailCalls(tmdbtest.FightClubID))
}

// blockingEnricher holds every enrichment until release is closed.
type blockingEnricher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingEnricher) Enrich(ctx context.Context, sel enrichment.Selection, progress enrichment.ProgressFunc) (*enrichment.Snapshot, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
	}
	<-b.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if progress != nil {
		progress(enrichment.Progress{Step: "Enrichment complete", Progress: 8, Total: 8})
	}
	return &enrichment.Snapshot{}, nil
}

func TestPrefetch_ConcurrentCallsShareEnrichment(t *testing.T) {
	enricher := &blockingEnricher{started: make(chan struct{}), release: make(chan struct{})}
	cache := New(enricher)

	const callers = 8
	results := make([]EnrichedSelection, callers)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = cache.Prefetch(context.Background(), fightClub, nil)
	}()
	<-enricher.started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Prefetch(context.Background(), fightClub, nil)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(enricher.release)
	wg.Wait()

	assert.Equal(t, int32(1), enricher.calls.Load())
	for _, r := range results {
		assert.True(t, r.IsEnriched)
		assert.Same(t, results[0].Data, r.Data)
	}
}

func TestPrefetch_CanceledStarterDoesNotFailJoiners(t *testing.T) {
	enricher := &blockingEnricher{started: make(chan struct{}), release: make(chan struct{})}
	cache := New(enricher)

	starterCtx, cancelStarter := context.WithCancel(context.Background())
	starter := make(chan EnrichedSelection, 1)
	go func() {
		starter <- cache.Prefetch(starterCtx, fightClub, nil)
	}()
	<-enricher.started

	joiner := make(chan EnrichedSelection, 1)
	go func() {
		joiner <- cache.Prefetch(context.Background(), fightClub, nil)
	}()
	time.Sleep(20 * time.Millisecond)

	cancelStarter()
	canceled := <-starter
	assert.False(t, canceled.IsEnriched)
	assert.Equal(t, context.Canceled.Error(), canceled.Error)

	close(enricher.release)
	joined := <-joiner
	assert.True(t, joined.IsEnriched, joined.Error)
	assert.NotNil(t, joined.Data)
	assert.True(t, cache.IsCached(fightClub.TMDBID))
	assert.Equal(t, int32(1), enricher.calls.Load())
}

func TestPrefetch_NoProgressAfterCallerReturns(t *testing.T) {
	enricher := &blockingEnricher{started: make(chan struct{}), release: make(chan struct{})}
	cache := New(enricher)

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var updates []Progress
	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Prefetch(ctx, fightClub, func(p Progress) {
			mu.Lock()
			updates = append(updates, p)
			mu.Unlock()
		})
	}()
	<-enricher.started
	cancel()
	<-done

	mu.Lock()
	seen := len(updates)
	last := updates[seen-1]
	mu.Unlock()
	assert.Equal(t, StatusError, last.Status)

	close(enricher.release)
	require.Eventually(t, func() bool { return cache.IsCached(fightClub.TMDBID) }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, updates, seen)
}

func TestCache_Auxiliary(t *testing.T) {
	cache := New(&blockingEnricher{started: make(chan struct{}), release: closedChan()})
	ctx := context.Background()

	assert.Nil(t, cache.Get(550))
	assert.False(t, cache.IsCached(550))
	assert.Empty(t, cache.IDs())

	for _, id := range []int{680, 550, 13} {
		cache.Prefetch(ctx, enrichment.Selection{TMDBID: id}, nil)
	}
	assert.Equal(t, []int{13, 550, 680}, cache.IDs())
	assert.True(t, cache.IsCached(550))
	assert.NotNil(t, cache.Get(550))

	cache.Remove(550)
	assert.False(t, cache.IsCached(550))
	assert.Equal(t, []int{13, 680}, cache.IDs())

	cache.Clear()
	assert.Empty(t, cache.IDs())
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

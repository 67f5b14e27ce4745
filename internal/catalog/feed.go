package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/services"
	"github.com/desertthunder/cinefeed/internal/shared"
	"github.com/sourcegraph/conc/pool"
)

// DefaultScrollThreshold is the distance from the end of the list, in rows, that triggers the next page.
// Two movie cards in the TUI.
const DefaultScrollThreshold = 6

// User-visible failure messages.
const (
	MsgGenresFailed = "No se pudieron cargar los géneros."
	MsgMoviesFailed = "No se pudieron cargar las películas. Intenta más tarde."
)

// Gate errors returned by [Feed.LoadNext] without issuing a request.
var (
	ErrBusy       = fmt.Errorf("a page is already loading")
	ErrExhausted  = fmt.Errorf("no more pages")
	ErrHalted     = fmt.Errorf("pagination halted after a failed fetch")
	ErrNotMounted = fmt.Errorf("feed is not mounted")
	ErrClosed     = fmt.Errorf("feed is closed")
	// ErrStale reports a result discarded because the feed was closed or reset while it was in flight.
	ErrStale = fmt.Errorf("stale result discarded")
)

// Signer ends the user session. Implemented by [auth.Gateway].
type Signer interface {
	Logout(ctx context.Context) error
}

// FeedOpts contains the collaborators and settings of a [Feed].
type FeedOpts struct {
	Movies          services.MoviesService
	Search          services.VideoSearchService
	Auth            Signer
	Filter          Category
	ScrollThreshold int
	Logger          *log.Logger
}

// Feed is the catalog feed controller: it accumulates pages of now-playing movies,
// deduplicates them, filters them by audience category and resolves trailers.
//
// Every fetch is tagged with the feed generation. [Feed.Close] and [Feed.Reset] advance it and
// cancel in-flight requests, so late results never mutate state.
type Feed struct {
	api       services.MoviesService
	search    services.VideoSearchService
	auth      Signer
	threshold int
	logger    *log.Logger

	mu     sync.Mutex
	gen    uint64
	life   context.Context
	cancel context.CancelFunc
	closed bool

	mounted bool
	genres  models.GenreTable
	all     []models.Movie
	seen    map[int]struct{}
	movies  []models.Movie
	filter  Category
	page    int
	hasMore bool
	loading bool
	halted  bool
	errMsg  string

	trailer    Trailer
	trailerSeq uint64
}

// NewFeed creates an unmounted feed. An invalid filter falls back to [DefaultCategory].
func NewFeed(opts FeedOpts) *Feed {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.ScrollThreshold <= 0 {
		opts.ScrollThreshold = DefaultScrollThreshold
	}
	filter, err := ParseCategory(string(opts.Filter))
	if err != nil {
		opts.Logger.Warn("unknown category, using default", "category", opts.Filter, "default", DefaultCategory)
		filter = DefaultCategory
	}

	f := &Feed{
		api:       opts.Movies,
		search:    opts.Search,
		auth:      opts.Auth,
		threshold: opts.ScrollThreshold,
		logger:    shared.WithLogger(opts.Logger, "component", "catalog"),
		filter:    filter,
	}
	f.resetLocked()
	return f
}

// resetLocked clears the feed state and starts a new generation.
func (f *Feed) resetLocked() {
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	f.life, f.cancel = context.WithCancel(context.Background())
	f.closed = false
	f.mounted = false
	f.genres = nil
	f.all = nil
	f.seen = make(map[int]struct{})
	f.movies = nil
	f.page = 0
	f.hasMore = true
	f.loading = false
	f.halted = false
	f.errMsg = ""
	f.trailerSeq++
	f.trailer = Trailer{}
}

// bind derives a request context from ctx that is also cancelled when the current generation ends.
func (f *Feed) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(f.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Mount fetches the genre table and the first page concurrently.
//
// Mounting a mounted feed is a no-op; use [Feed.Reset] to start over.
func (f *Feed) Mount(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.mounted {
		f.mu.Unlock()
		return nil
	}
	f.mounted = true
	f.loading = true
	f.page = 1
	gen := f.gen
	ctx, cancel := f.bind(ctx)
	f.mu.Unlock()
	defer cancel()

	f.logger.Debug("mounting feed", "generation", gen)

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		genres, err := f.api.Genres(ctx)
		return f.applyGenres(gen, genres, err)
	})
	p.Go(func(ctx context.Context) error {
		page, err := f.api.NowPlaying(ctx, 1)
		return f.applyPage(gen, 1, page, err)
	})
	return p.Wait()
}

func (f *Feed) applyGenres(gen uint64, genres []models.Genre, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		return ErrStale
	}
	if err != nil {
		f.logger.Error("failed to load genres", "error", err)
		f.halted = true
		if f.errMsg == "" {
			f.errMsg = MsgGenresFailed
		}
		return fmt.Errorf("failed to load genres: %w", err)
	}

	f.genres = models.NewGenreTable(genres)
	f.logger.Debug("genres loaded", "count", len(genres))
	return nil
}

func (f *Feed) applyPage(gen uint64, requested int, page *models.Page, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		return ErrStale
	}
	f.loading = false

	if err != nil {
		f.logger.Error("failed to load movies", "page", requested, "error", err)
		f.page = requested - 1
		f.halted = true
		f.errMsg = MsgMoviesFailed
		return fmt.Errorf("failed to load page %d: %w", requested, err)
	}

	added := f.merge(page.Results)
	f.hasMore = requested < page.TotalPages
	f.movies = Filter(f.all, f.filter)

	f.logger.Info("page loaded", "page", requested, "total_pages", page.TotalPages, "added", added, "accumulated", len(f.all))
	return nil
}

// merge appends movies with a synopsis whose ids are not yet accumulated, in arrival order.
func (f *Feed) merge(movies []models.Movie) int {
	added := 0
	for _, m := range movies {
		if !m.HasOverview() {
			continue
		}
		if _, dup := f.seen[m.ID]; dup {
			continue
		}
		f.seen[m.ID] = struct{}{}
		f.all = append(f.all, m)
		added++
	}
	return added
}

// LoadNext fetches the page after the last one requested.
//
// The call is rejected without a request while a page is loading ([ErrBusy]), after the last
// page ([ErrExhausted]) and after a failed fetch ([ErrHalted]).
func (f *Feed) LoadNext(ctx context.Context) error {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return ErrClosed
	case !f.mounted:
		f.mu.Unlock()
		return ErrNotMounted
	case f.halted:
		f.mu.Unlock()
		return ErrHalted
	case f.loading:
		f.mu.Unlock()
		return ErrBusy
	case !f.hasMore:
		f.mu.Unlock()
		return ErrExhausted
	}

	f.page++
	next := f.page
	f.loading = true
	gen := f.gen
	ctx, cancel := f.bind(ctx)
	f.mu.Unlock()
	defer cancel()

	f.logger.Debug("loading next page", "page", next)
	page, err := f.api.NowPlaying(ctx, next)
	return f.applyPage(gen, next, page, err)
}

// NearBottom reports whether the viewport is within the scroll threshold of the end of the content.
func (f *Feed) NearBottom(offset, viewport, content int) bool {
	return content-(offset+viewport) <= f.threshold
}

// SetFilter selects a category and recomputes the filtered list.
func (f *Feed) SetFilter(c Category) error {
	c, err := ParseCategory(string(c))
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = c
	f.movies = Filter(f.all, c)
	return nil
}

// Close cancels in-flight requests and discards their results.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.gen++
	f.cancel()
	f.closed = true
	f.loading = false
	f.trailerSeq++
	f.logger.Debug("feed closed")
}

// Reset discards all state, keeping the filter, so the next [Feed.Mount] starts from page 1.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
	f.logger.Debug("feed reset", "generation", f.gen)
}

// Logout closes the feed and ends the session.
func (f *Feed) Logout(ctx context.Context) error {
	f.Close()
	if f.auth == nil {
		return shared.ErrNotAuthenticated
	}
	return f.auth.Logout(ctx)
}

// Popular fetches the popular listing, dropping movies without a synopsis and applying the current filter.
func (f *Feed) Popular(ctx context.Context) ([]models.Movie, error) {
	movies, err := f.api.Popular(ctx)
	if err != nil {
		f.logger.Error("failed to load popular movies", "error", err)
		return nil, err
	}

	f.mu.Lock()
	filter := f.filter
	f.mu.Unlock()

	kept := make([]models.Movie, 0, len(movies))
	seen := make(map[int]struct{}, len(movies))
	for _, m := range movies {
		if _, dup := seen[m.ID]; dup || !m.HasOverview() {
			continue
		}
		seen[m.ID] = struct{}{}
		kept = append(kept, m)
	}
	return Filter(kept, filter), nil
}

// Snapshot is a copy of the feed state for rendering.
type Snapshot struct {
	Movies  []models.Movie
	Total   int
	Page    int
	HasMore bool
	Loading bool
	Err     string
	Filter  Category
	Genres  models.GenreTable
	Trailer Trailer
}

// GenreNames maps the genres of m to display names.
func (s Snapshot) GenreNames(m models.Movie) []string {
	return s.Genres.Names(m.GenreIDs)
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Movies:  append([]models.Movie(nil), f.movies...),
		Total:   len(f.all),
		Page:    f.page,
		HasMore: f.hasMore && !f.halted,
		Loading: f.loading,
		Err:     f.errMsg,
		Filter:  f.filter,
		Genres:  f.genres,
		Trailer: f.trailer,
	}
}

// All returns a copy of the accumulated, unfiltered list.
func (f *Feed) All() []models.Movie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Movie(nil), f.all...)
}

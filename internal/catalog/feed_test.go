package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/shared"
	tu "github.com/desertthunder/cinefeed/internal/testing"
)

func page(n, total int, movies ...models.Movie) *models.Page {
	return &models.Page{Page: n, TotalPages: total, Results: movies}
}

func newTestFeed(m *tu.MockMoviesService, filter Category) *Feed {
	return NewFeed(FeedOpts{Movies: m, Filter: filter, Logger: shared.NewLogger(io.Discard)})
}

// waitForCalls polls until the mock has received n page requests.
func waitForCalls(t *testing.T, m *tu.MockMoviesService, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(m.Calls()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d page requests, got %v", n, m.Calls())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func ids(movies []models.Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func TestFeedMount(t *testing.T) {
	t.Run("Drops Movies Without Synopsis", func(t *testing.T) {
		var movies []models.Movie
		for i := 1; i <= 20; i++ {
			overview := fmt.Sprintf("sinopsis %d", i)
			if i%4 == 0 {
				overview = ""
			}
			movies = append(movies, tu.Movie(i, fmt.Sprintf("Película %d", i), overview, 16))
		}
		m := &tu.MockMoviesService{
			GenreList: []models.Genre{{ID: 16, Name: "Animación"}},
			Pages:     map[int]*models.Page{1: page(1, 1, movies...)},
		}
		feed := newTestFeed(m, None)

		if err := feed.Mount(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		snap := feed.Snapshot()
		if snap.Total != 15 {
			t.Errorf("expected 15 accumulated movies, got %d", snap.Total)
		}
		if snap.HasMore {
			t.Error("expected hasMore to be false")
		}
		if err := feed.LoadNext(context.Background()); !errors.Is(err, ErrExhausted) {
			t.Errorf("expected ErrExhausted, got %v", err)
		}
		if calls := m.Calls(); !slices.Equal(calls, []int{1}) {
			t.Errorf("expected only page 1 to be requested, got %v", calls)
		}
		if m.GenreCalls != 1 {
			t.Errorf("expected a single genre fetch, got %d", m.GenreCalls)
		}
		if names := snap.GenreNames(snap.Movies[0]); names[0] != "Animación" {
			t.Errorf("unexpected genre names %v", names)
		}
	})

	t.Run("Mount Is Idempotent", func(t *testing.T) {
		m := &tu.MockMoviesService{Pages: map[int]*models.Page{1: page(1, 3, tu.Movie(1, "A", "a"))}}
		feed := newTestFeed(m, None)

		feed.Mount(context.Background())
		feed.Mount(context.Background())

		if calls := m.Calls(); len(calls) != 1 {
			t.Errorf("expected one request, got %v", calls)
		}
	})

	t.Run("Genres Failure Halts Pagination", func(t *testing.T) {
		m := &tu.MockMoviesService{
			GenresErr: tu.ErrMock,
			Pages:     map[int]*models.Page{1: page(1, 3, tu.Movie(1, "A", "a"))},
		}
		feed := newTestFeed(m, None)

		if err := feed.Mount(context.Background()); !errors.Is(err, tu.ErrMock) {
			t.Errorf("expected mount error, got %v", err)
		}
		snap := feed.Snapshot()
		if snap.Err != MsgGenresFailed {
			t.Errorf("expected genres message, got %q", snap.Err)
		}
		if err := feed.LoadNext(context.Background()); !errors.Is(err, ErrHalted) {
			t.Errorf("expected ErrHalted, got %v", err)
		}
	})

	t.Run("Movies Failure Sets Message", func(t *testing.T) {
		m := &tu.MockMoviesService{PageErr: map[int]error{1: tu.ErrMock}}
		feed := newTestFeed(m, None)

		if err := feed.Mount(context.Background()); err == nil {
			t.Fatal("expected mount error")
		}
		snap := feed.Snapshot()
		if snap.Err != MsgMoviesFailed {
			t.Errorf("expected movies message, got %q", snap.Err)
		}
		if snap.Loading {
			t.Error("expected loading to be cleared")
		}
	})
}

func TestFeedLoadNext(t *testing.T) {
	t.Run("Before Mount", func(t *testing.T) {
		feed := newTestFeed(&tu.MockMoviesService{}, None)
		if err := feed.LoadNext(context.Background()); !errors.Is(err, ErrNotMounted) {
			t.Errorf("expected ErrNotMounted, got %v", err)
		}
	})

	t.Run("Deduplicates Across Pages", func(t *testing.T) {
		m := &tu.MockMoviesService{Pages: map[int]*models.Page{
			1: page(1, 2, tu.Movie(1, "A", "a"), tu.Movie(2, "B", "b"), tu.Movie(3, "C", "c")),
			2: page(2, 2, tu.Movie(2, "B", "b"), tu.Movie(4, "D", "d"), tu.Movie(3, "C", "c"), tu.Movie(5, "E", "e")),
		}}
		feed := newTestFeed(m, None)

		if err := feed.Mount(context.Background()); err != nil {
			t.Fatalf("mount failed: %v", err)
		}
		if err := feed.LoadNext(context.Background()); err != nil {
			t.Fatalf("load next failed: %v", err)
		}

		if got := ids(feed.All()); !slices.Equal(got, []int{1, 2, 3, 4, 5}) {
			t.Errorf("expected arrival order without duplicates, got %v", got)
		}
		if feed.Snapshot().HasMore {
			t.Error("expected feed to be exhausted after the last page")
		}
	})

	t.Run("Stops At Total Pages", func(t *testing.T) {
		m := &tu.MockMoviesService{Pages: map[int]*models.Page{
			1: page(1, 2, tu.Movie(1, "A", "a")),
			2: page(2, 2, tu.Movie(2, "B", "b")),
		}}
		feed := newTestFeed(m, None)
		feed.Mount(context.Background())

		if err := feed.LoadNext(context.Background()); err != nil {
			t.Fatalf("expected page 2, got %v", err)
		}
		for range 5 {
			if err := feed.LoadNext(context.Background()); !errors.Is(err, ErrExhausted) {
				t.Errorf("expected ErrExhausted, got %v", err)
			}
		}
		if calls := m.Calls(); !slices.Equal(calls, []int{1, 2}) {
			t.Errorf("expected pages 1 and 2, got %v", calls)
		}
	})

	t.Run("Single Request In Flight", func(t *testing.T) {
		m := &tu.MockMoviesService{Pages: map[int]*models.Page{
			1: page(1, 5, tu.Movie(1, "A", "a")),
			2: page(2, 5, tu.Movie(2, "B", "b")),
			3: page(3, 5, tu.Movie(3, "C", "c")),
		}}
		feed := newTestFeed(m, None)
		feed.Mount(context.Background())

		gate := make(chan struct{})
		m.Gate = gate

		done := make(chan error, 1)
		go func() { done <- feed.LoadNext(context.Background()) }()
		waitForCalls(t, m, 2)

		for range 10 {
			if err := feed.LoadNext(context.Background()); !errors.Is(err, ErrBusy) {
				t.Errorf("expected ErrBusy, got %v", err)
			}
		}
		if !feed.Snapshot().Loading {
			t.Error("expected loading flag while the request is in flight")
		}

		gate <- struct{}{}
		if err := <-done; err != nil {
			t.Fatalf("expected page 2, got %v", err)
		}

		close(gate)
		if err := feed.LoadNext(context.Background()); err != nil {
			t.Fatalf("expected page 3, got %v", err)
		}
		if calls := m.Calls(); !slices.Equal(calls, []int{1, 2, 3}) {
			t.Errorf("pages must not be skipped or repeated, got %v", calls)
		}
	})

	t.Run("Failure Halts Until Reset", func(t *testing.T) {
		m := &tu.MockMoviesService{
			Pages:   map[int]*models.Page{1: page(1, 3, tu.Movie(1, "A", "a"))},
			PageErr: map[int]error{2: tu.ErrMock},
		}
		feed := newTestFeed(m, None)
		feed.Mount(context.Background())

		if err := feed.LoadNext(context.Background()); !errors.Is(err, tu.ErrMock) {
			t.Errorf("expected fetch error, got %v", err)
		}
		if err := feed.LoadNext(context.Background()); !errors.Is(err, ErrHalted) {
			t.Errorf("expected ErrHalted, got %v", err)
		}
		snap := feed.Snapshot()
		if snap.Err != MsgMoviesFailed || snap.HasMore {
			t.Errorf("unexpected snapshot %+v", snap)
		}
		if snap.Total != 1 {
			t.Errorf("accumulated movies should be kept, got %d", snap.Total)
		}

		feed.Reset()
		if err := feed.Mount(context.Background()); err != nil {
			t.Fatalf("remount failed: %v", err)
		}
		if feed.Snapshot().Err != "" {
			t.Error("expected error message to be cleared")
		}
		if calls := m.Calls(); !slices.Equal(calls, []int{1, 2, 1}) {
			t.Errorf("expected remount from page 1, got %v", calls)
		}
	})
}

func TestFeedFilter(t *testing.T) {
	m := &tu.MockMoviesService{Pages: map[int]*models.Page{
		1: page(1, 1,
			tu.Movie(1, "Acción", "a", 28),
			tu.Movie(2, "Familia", "b", 10751),
			tu.Movie(3, "Drama", "c", 18),
		),
	}}

	t.Run("Default Category", func(t *testing.T) {
		feed := NewFeed(FeedOpts{Movies: m, Logger: shared.NewLogger(io.Discard)})
		feed.Mount(context.Background())

		snap := feed.Snapshot()
		if snap.Filter != Family {
			t.Errorf("expected default filter, got %s", snap.Filter)
		}
		if got := ids(snap.Movies); !slices.Equal(got, []int{2}) {
			t.Errorf("expected family movies only, got %v", got)
		}
	})

	t.Run("Invalid Configured Category Falls Back", func(t *testing.T) {
		feed := newTestFeed(m, Category("nope"))
		if feed.Snapshot().Filter != DefaultCategory {
			t.Errorf("expected default filter, got %s", feed.Snapshot().Filter)
		}
	})

	t.Run("Set Filter", func(t *testing.T) {
		feed := newTestFeed(m, None)
		feed.Mount(context.Background())

		if err := feed.SetFilter(Children); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := ids(feed.Snapshot().Movies); !slices.Equal(got, []int{2}) {
			t.Errorf("unexpected filtered list %v", got)
		}

		if err := feed.SetFilter(Category("ninguno")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := feed.Snapshot().Movies; len(got) != 3 {
			t.Errorf("expected full list, got %v", ids(got))
		}

		if err := feed.SetFilter(Category("terror")); !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("expected ErrUnknownCategory, got %v", err)
		}
		if feed.Snapshot().Filter != None {
			t.Error("an invalid category should not change the selection")
		}
	})

	t.Run("Infancias Against Action Only", func(t *testing.T) {
		action := &tu.MockMoviesService{Pages: map[int]*models.Page{1: page(1, 1, tu.Movie(1, "Acción", "a", 28))}}
		feed := newTestFeed(action, Children)
		feed.Mount(context.Background())

		if got := feed.Snapshot().Movies; len(got) != 0 {
			t.Errorf("expected empty list, got %v", ids(got))
		}
	})
}

func TestFeedNearBottom(t *testing.T) {
	feed := newTestFeed(&tu.MockMoviesService{}, None)

	tc := []struct {
		name                      string
		offset, viewport, content int
		want                      bool
	}{
		{"top of long list", 0, 20, 500, false},
		{"just outside threshold", 473, 20, 500, false},
		{"at threshold", 474, 20, 500, true},
		{"at end", 480, 20, 500, true},
		{"short list", 0, 20, 10, true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := feed.NearBottom(tt.offset, tt.viewport, tt.content); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFeedCancellation(t *testing.T) {
	t.Run("Close Discards In Flight Page", func(t *testing.T) {
		m := &tu.MockMoviesService{
			Pages: map[int]*models.Page{1: page(1, 2, tu.Movie(1, "A", "a"))},
			Gate:  make(chan struct{}),
		}
		feed := newTestFeed(m, None)

		done := make(chan error, 1)
		go func() { done <- feed.Mount(context.Background()) }()
		waitForCalls(t, m, 1)

		feed.Close()

		if err := <-done; !errors.Is(err, ErrStale) {
			t.Errorf("expected ErrStale, got %v", err)
		}
		if snap := feed.Snapshot(); snap.Total != 0 {
			t.Errorf("stale page must not mutate state, got %d movies", snap.Total)
		}
		if err := feed.LoadNext(context.Background()); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})

	t.Run("Reset Discards In Flight Page", func(t *testing.T) {
		m := &tu.MockMoviesService{Pages: map[int]*models.Page{
			1: page(1, 3, tu.Movie(1, "A", "a")),
			2: page(2, 3, tu.Movie(2, "B", "b")),
		}}
		feed := newTestFeed(m, None)
		feed.Mount(context.Background())

		m.Gate = make(chan struct{})
		done := make(chan error, 1)
		go func() { done <- feed.LoadNext(context.Background()) }()
		waitForCalls(t, m, 2)

		feed.Reset()

		if err := <-done; !errors.Is(err, ErrStale) {
			t.Errorf("expected ErrStale, got %v", err)
		}
		snap := feed.Snapshot()
		if snap.Total != 0 || snap.Page != 0 || snap.Loading {
			t.Errorf("expected a clean feed, got %+v", snap)
		}
	})
}

type mockSigner struct {
	calls int
	err   error
}

func (m *mockSigner) Logout(ctx context.Context) error {
	m.calls++
	return m.err
}

func TestFeedLogout(t *testing.T) {
	t.Run("Closes And Delegates", func(t *testing.T) {
		signer := &mockSigner{}
		m := &tu.MockMoviesService{Pages: map[int]*models.Page{1: page(1, 2, tu.Movie(1, "A", "a"))}}
		feed := NewFeed(FeedOpts{Movies: m, Auth: signer, Logger: shared.NewLogger(io.Discard)})
		feed.Mount(context.Background())

		if err := feed.Logout(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if signer.calls != 1 {
			t.Errorf("expected one logout call, got %d", signer.calls)
		}
		if err := feed.LoadNext(context.Background()); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})

	t.Run("Without Gateway", func(t *testing.T) {
		feed := newTestFeed(&tu.MockMoviesService{}, None)
		if err := feed.Logout(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestFeedPopular(t *testing.T) {
	m := &tu.MockMoviesService{PopularList: []models.Movie{
		tu.Movie(1, "A", "a", 16),
		tu.Movie(2, "B", "", 16),
		tu.Movie(1, "A", "a", 16),
		tu.Movie(3, "C", "c", 27),
	}}
	feed := newTestFeed(m, Children)

	movies, err := feed.Popular(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := ids(movies); !slices.Equal(got, []int{1}) {
		t.Errorf("unexpected popular list %v", got)
	}

	m.PopularErr = tu.ErrMock
	if _, err := feed.Popular(context.Background()); !errors.Is(err, tu.ErrMock) {
		t.Errorf("expected error, got %v", err)
	}
}

package catalog

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/services"
	"github.com/desertthunder/cinefeed/internal/shared"
	tu "github.com/desertthunder/cinefeed/internal/testing"
)

func TestPickVideo(t *testing.T) {
	tc := []struct {
		name    string
		videos  []models.Video
		wantKey string
		wantOK  bool
	}{
		{"empty", nil, "", false},
		{
			"trailer beats teaser",
			[]models.Video{
				{Key: "teaser", Site: "YouTube", Type: "Teaser", Official: true},
				{Key: "trailer", Site: "YouTube", Type: "Trailer"},
			},
			"trailer", true,
		},
		{
			"official preferred within type",
			[]models.Video{
				{Key: "fan", Site: "YouTube", Type: "Trailer"},
				{Key: "studio", Site: "YouTube", Type: "Trailer", Official: true},
			},
			"studio", true,
		},
		{
			"other sites ignored",
			[]models.Video{
				{Key: "vimeo", Site: "Vimeo", Type: "Trailer", Official: true},
				{Key: "clip", Site: "YouTube", Type: "Clip"},
			},
			"clip", true,
		},
		{
			"behind the scenes last",
			[]models.Video{
				{Key: "bts", Site: "YouTube", Type: "Behind the Scenes"},
				{Key: "feat", Site: "YouTube", Type: "Featurette"},
			},
			"bts", true,
		},
		{
			"unsupported types only",
			[]models.Video{{Key: "feat", Site: "YouTube", Type: "Featurette"}},
			"", false,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickVideo(tt.videos)
			if ok != tt.wantOK || got.Key != tt.wantKey {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.wantKey, tt.wantOK, got.Key, ok)
			}
		})
	}
}

// blockingVideos holds Videos until released so a lookup can be superseded.
type blockingVideos struct {
	*tu.MockMoviesService
	started chan struct{}
	release chan struct{}
}

func (b *blockingVideos) Videos(ctx context.Context, movieID int) ([]models.Video, error) {
	b.started <- struct{}{}
	<-b.release
	return b.MockMoviesService.Videos(ctx, movieID)
}

func TestResolveTrailer(t *testing.T) {
	movie := tu.Movie(7, "Coco", "sinopsis", 16)

	newFeed := func(m services.MoviesService, search *tu.MockVideoSearch) *Feed {
		opts := FeedOpts{Movies: m, Logger: shared.NewLogger(io.Discard)}
		if search != nil {
			opts.Search = search
		}
		return NewFeed(opts)
	}

	t.Run("From Video Listing", func(t *testing.T) {
		m := &tu.MockMoviesService{VideoLists: map[int][]models.Video{
			7: {{Key: "abc", Site: "YouTube", Type: "Trailer", Official: true}},
		}}
		search := &tu.MockVideoSearch{}
		feed := newFeed(m, search)

		trailer, err := feed.ResolveTrailer(context.Background(), movie)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if trailer.Status != TrailerFound || trailer.Key != "abc" || trailer.Source != SourceVideos {
			t.Errorf("unexpected trailer %+v", trailer)
		}
		if !trailer.Open {
			t.Error("expected modal to be open")
		}
		if trailer.URL() != "https://www.youtube.com/watch?v=abc" {
			t.Errorf("unexpected url %s", trailer.URL())
		}
		if len(search.Queries) != 0 {
			t.Error("search should not be used when the listing has a trailer")
		}
	})

	t.Run("Falls Back To Search", func(t *testing.T) {
		m := &tu.MockMoviesService{VideoLists: map[int][]models.Video{
			7: {{Key: "x", Site: "Vimeo", Type: "Trailer"}},
		}}
		search := &tu.MockVideoSearch{Keys: map[string]string{"Coco": "yt1"}}
		feed := newFeed(m, search)

		trailer, err := feed.ResolveTrailer(context.Background(), movie)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if trailer.Status != TrailerFound || trailer.Key != "yt1" || trailer.Source != SourceSearch {
			t.Errorf("unexpected trailer %+v", trailer)
		}
		if !slices.Equal(search.Queries, []string{"Coco"}) {
			t.Errorf("unexpected queries %v", search.Queries)
		}
	})

	t.Run("Listing Error Falls Back To Search", func(t *testing.T) {
		m := &tu.MockMoviesService{VideosErr: tu.ErrMock}
		search := &tu.MockVideoSearch{Keys: map[string]string{"Coco": "yt1"}}
		feed := newFeed(m, search)

		trailer, _ := feed.ResolveTrailer(context.Background(), movie)
		if trailer.Status != TrailerFound {
			t.Errorf("expected fallback to succeed, got %s", trailer.Status)
		}
	})

	t.Run("Both Fail Ends Not Found", func(t *testing.T) {
		m := &tu.MockMoviesService{VideosErr: tu.ErrMock}
		search := &tu.MockVideoSearch{Err: shared.ErrNotFound}
		feed := newFeed(m, search)

		trailer, err := feed.ResolveTrailer(context.Background(), movie)
		if err != nil {
			t.Fatalf("lookup failures should degrade, got %v", err)
		}
		if trailer.Status != TrailerNotFound || trailer.Key != "" || !trailer.Open {
			t.Errorf("unexpected trailer %+v", trailer)
		}
		if feed.Trailer().Status != TrailerNotFound {
			t.Error("expected state to be stored")
		}
	})

	t.Run("Without Search Service", func(t *testing.T) {
		feed := newFeed(&tu.MockMoviesService{}, nil)

		trailer, _ := feed.ResolveTrailer(context.Background(), movie)
		if trailer.Status != TrailerNotFound {
			t.Errorf("expected not found, got %s", trailer.Status)
		}
	})

	t.Run("Close Supersedes Lookup", func(t *testing.T) {
		m := &blockingVideos{
			MockMoviesService: &tu.MockMoviesService{VideoLists: map[int][]models.Video{
				7: {{Key: "abc", Site: "YouTube", Type: "Trailer"}},
			}},
			started: make(chan struct{}),
			release: make(chan struct{}),
		}
		feed := newFeed(m, nil)

		done := make(chan error, 1)
		go func() {
			_, err := feed.ResolveTrailer(context.Background(), movie)
			done <- err
		}()

		<-m.started
		if s := feed.Trailer().Status; s != TrailerResolving {
			t.Errorf("expected resolving, got %s", s)
		}
		feed.CloseTrailer()
		close(m.release)

		if err := <-done; !errors.Is(err, ErrStale) {
			t.Errorf("expected ErrStale, got %v", err)
		}
		if tr := feed.Trailer(); tr.Open || tr.Key != "" {
			t.Errorf("superseded lookup must not reopen the modal, got %+v", tr)
		}
	})

	t.Run("Closed Feed", func(t *testing.T) {
		feed := newFeed(&tu.MockMoviesService{}, nil)
		feed.Close()

		if _, err := feed.ResolveTrailer(context.Background(), movie); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})
}

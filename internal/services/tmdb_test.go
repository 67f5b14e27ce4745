package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/cinefeed/internal/shared"
)

func newTMDBServer(t *testing.T, handler http.HandlerFunc) (*TMDBService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewTMDBService(shared.TMDBConfig{BearerToken: "token", BaseURL: server.URL}, 0, nil)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv, server
}

func TestTMDBService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Missing Token", func(t *testing.T) {
			if _, err := NewTMDBService(shared.TMDBConfig{}, 0, nil); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			srv, err := NewTMDBService(shared.TMDBConfig{BearerToken: "token"}, 4, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.api.BaseURL() != defaultTMDBBaseURL {
				t.Errorf("expected default base URL, got %s", srv.api.BaseURL())
			}
			if srv.language != "es-ES" {
				t.Errorf("expected es-ES, got %s", srv.language)
			}
			if srv.api.limiter == nil {
				t.Error("expected rate limiter")
			}
			if srv.Name() != "TMDB" {
				t.Errorf("unexpected name %s", srv.Name())
			}
		})
	})

	t.Run("Genres", func(t *testing.T) {
		srv, _ := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/genre/movie/list" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("language") != "es-ES" {
				t.Errorf("expected language param, got %s", r.URL.RawQuery)
			}
			if r.Header.Get("Authorization") != "Bearer token" {
				t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
			}
			w.Write([]byte(`{"genres":[{"id":28,"name":"Acción"},{"id":16,"name":"Animación"}]}`))
		})

		genres, err := srv.Genres(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(genres) != 2 || genres[0].ID != 28 || genres[1].Name != "Animación" {
			t.Errorf("unexpected genres %+v", genres)
		}
	})

	t.Run("NowPlaying", func(t *testing.T) {
		t.Run("Decodes Page", func(t *testing.T) {
			srv, _ := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/movie/now_playing" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.URL.Query().Get("page") != "3" {
					t.Errorf("expected page=3, got %s", r.URL.RawQuery)
				}
				w.Write([]byte(`{"page":3,"total_pages":7,"results":[
					{"id":1,"title":"Uno","overview":"Sinopsis","poster_path":"/1.jpg","genre_ids":[16,35],"vote_average":7.5}
				]}`))
			})

			page, err := srv.NowPlaying(context.Background(), 3)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if page.Page != 3 || page.TotalPages != 7 {
				t.Errorf("unexpected pagination %d/%d", page.Page, page.TotalPages)
			}
			if len(page.Results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(page.Results))
			}
			m := page.Results[0]
			if m.Title != "Uno" || m.VoteAverage != 7.5 || len(m.GenreIDs) != 2 || m.PosterPath != "/1.jpg" {
				t.Errorf("unexpected movie %+v", m)
			}
		})

		t.Run("Rejects Page Zero", func(t *testing.T) {
			srv, _ := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			})
			if _, err := srv.NowPlaying(context.Background(), 0); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			srv, _ := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			})
			_, err := srv.NowPlaying(context.Background(), 1)

			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
				t.Errorf("expected 500 *APIError, got %v", err)
			}
		})
	})

	t.Run("Popular", func(t *testing.T) {
		srv, _ := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/movie/popular" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":9,"title":"Nueve"}]}`))
		})

		movies, err := srv.Popular(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(movies) != 1 || movies[0].ID != 9 {
			t.Errorf("unexpected movies %+v", movies)
		}
	})

	t.Run("Videos", func(t *testing.T) {
		srv, _ := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/movie/42/videos" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id":42,"results":[{"site":"YouTube","type":"Trailer","key":"abc","official":true}]}`))
		})

		videos, err := srv.Videos(context.Background(), 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(videos) != 1 || videos[0].Key != "abc" || !videos[0].Official {
			t.Errorf("unexpected videos %+v", videos)
		}
	})
}

func TestYouTubeService(t *testing.T) {
	t.Run("Missing Key", func(t *testing.T) {
		if _, err := NewYouTubeService(shared.YouTubeConfig{}, nil); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("SearchTrailer", func(t *testing.T) {
		t.Run("Top Result", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if r.URL.Path != "/search" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if q.Get("q") != "Coco trailer" || q.Get("maxResults") != "1" || q.Get("type") != "video" || q.Get("key") != "k" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"xyz"}}]}`))
			}))
			defer server.Close()

			srv, _ := NewYouTubeService(shared.YouTubeConfig{APIKey: "k", BaseURL: server.URL}, nil)
			key, err := srv.SearchTrailer(context.Background(), "Coco")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if key != "xyz" {
				t.Errorf("expected xyz, got %s", key)
			}
		})

		t.Run("Empty Listing", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items":[]}`))
			}))
			defer server.Close()

			srv, _ := NewYouTubeService(shared.YouTubeConfig{APIKey: "k", BaseURL: server.URL}, nil)
			if _, err := srv.SearchTrailer(context.Background(), "Coco"); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("Quota Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
			}))
			defer server.Close()

			srv, _ := NewYouTubeService(shared.YouTubeConfig{APIKey: "k", BaseURL: server.URL}, nil)
			_, err := srv.SearchTrailer(context.Background(), "Coco")

			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Message != "quota exceeded" {
				t.Errorf("expected quota *APIError, got %v", err)
			}
		})

		t.Run("Empty Title", func(t *testing.T) {
			srv, _ := NewYouTubeService(shared.YouTubeConfig{APIKey: "k"}, nil)
			if _, err := srv.SearchTrailer(context.Background(), "  "); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("WatchURL", func(t *testing.T) {
		if got := WatchURL("abc"); got != "https://www.youtube.com/watch?v=abc" {
			t.Errorf("unexpected URL %s", got)
		}
	})
}

// TMDB v3 implementation of [MoviesService]
//
// Response shapes based on https://developer.themoviedb.org/reference
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/shared"
)

const (
	defaultTMDBBaseURL  = "https://api.themoviedb.org/3"
	defaultTMDBLanguage = "es-ES"
)

// TMDBService implements [MoviesService] with a bearer token.
type TMDBService struct {
	api      *APIService
	language string
}

// NewTMDBService creates a TMDB client from its credentials section.
//
// Requests are throttled to rps per second when rps is positive.
func NewTMDBService(config shared.TMDBConfig, rps float64, client *http.Client) (*TMDBService, error) {
	if config.BearerToken == "" {
		return nil, fmt.Errorf("%w: tmdb bearer_token", shared.ErrMissingCredentials)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultTMDBBaseURL
	}
	lang := config.Language
	if lang == "" {
		lang = defaultTMDBLanguage
	}

	api := NewAPIService("tmdb", baseURL, client).WithRateLimit(rps)
	api.SetHeader("Authorization", "Bearer "+config.BearerToken)

	return &TMDBService{api: api, language: lang}, nil
}

// Name returns the service name.
func (s *TMDBService) Name() string {
	return "TMDB"
}

func (s *TMDBService) query() url.Values {
	q := url.Values{}
	q.Set("language", s.language)
	return q
}

// Genres calls GET /genre/movie/list.
func (s *TMDBService) Genres(ctx context.Context) ([]models.Genre, error) {
	var response struct {
		Genres []models.Genre `json:"genres"`
	}
	if err := s.api.GetJSON(ctx, "/genre/movie/list", s.query(), &response); err != nil {
		return nil, err
	}
	return response.Genres, nil
}

// NowPlaying calls GET /movie/now_playing for page.
func (s *TMDBService) NowPlaying(ctx context.Context, page int) (*models.Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page %d", shared.ErrInvalidArgument, page)
	}

	q := s.query()
	q.Set("page", strconv.Itoa(page))

	var response models.Page
	if err := s.api.GetJSON(ctx, "/movie/now_playing", q, &response); err != nil {
		return nil, err
	}
	if response.Page == 0 {
		response.Page = page
	}
	return &response, nil
}

// Popular calls GET /movie/popular.
func (s *TMDBService) Popular(ctx context.Context) ([]models.Movie, error) {
	var response models.Page
	if err := s.api.GetJSON(ctx, "/movie/popular", s.query(), &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// Videos calls GET /movie/{id}/videos.
func (s *TMDBService) Videos(ctx context.Context, movieID int) ([]models.Video, error) {
	var response struct {
		ID      int            `json:"id"`
		Results []models.Video `json:"results"`
	}
	endpoint := fmt.Sprintf("/movie/%d/videos", movieID)
	if err := s.api.GetJSON(ctx, endpoint, s.query(), &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

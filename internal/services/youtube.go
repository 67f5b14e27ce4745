// YouTube Data API v3 implementation of [VideoSearchService]
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/cinefeed/internal/shared"
)

const defaultYTBaseURL string = "https://www.googleapis.com/youtube/v3"

// YouTubeSearchResult represents an entry of a search listing.
type YouTubeSearchResult struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

// YouTubeService implements [VideoSearchService] with an API key.
type YouTubeService struct {
	api    *APIService
	apiKey string
}

// NewYouTubeService creates a YouTube Data API client from its credentials section.
func NewYouTubeService(config shared.YouTubeConfig, client *http.Client) (*YouTubeService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: youtube api_key", shared.ErrMissingCredentials)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		api:    NewAPIService("youtube", baseURL, client),
		apiKey: config.APIKey,
	}, nil
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// SearchTrailer calls GET /search for "{title} trailer" and returns the top video id.
func (y *YouTubeService) SearchTrailer(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: empty title", shared.ErrInvalidArgument)
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("q", title+" trailer")
	q.Set("type", "video")
	q.Set("maxResults", "1")
	q.Set("key", y.apiKey)

	var response struct {
		Items []YouTubeSearchResult `json:"items"`
	}
	if err := y.api.GetJSON(ctx, "/search", q, &response); err != nil {
		return "", err
	}

	for _, item := range response.Items {
		if item.ID.VideoID != "" {
			return item.ID.VideoID, nil
		}
	}
	return "", fmt.Errorf("%w: no video for %q", shared.ErrNotFound, title)
}

// WatchURL returns the browser URL for a video key.
func WatchURL(key string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(key)
}

package catalog

import (
	"context"
	"strings"

	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/services"
)

// TrailerStatus is the lifecycle of a trailer lookup.
type TrailerStatus int

const (
	TrailerIdle TrailerStatus = iota
	TrailerResolving
	TrailerFound
	TrailerNotFound
)

func (s TrailerStatus) String() string {
	switch s {
	case TrailerResolving:
		return "resolving"
	case TrailerFound:
		return "found"
	case TrailerNotFound:
		return "not found"
	default:
		return "idle"
	}
}

// Where a trailer key came from.
const (
	SourceVideos = "videos"
	SourceSearch = "search"
)

// Trailer is the state of the trailer modal.
type Trailer struct {
	MovieID int
	Title   string
	Status  TrailerStatus
	Key     string
	Source  string
	Open    bool
}

// URL is the watch page of the resolved video, or "" when unresolved.
func (t Trailer) URL() string {
	if t.Key == "" {
		return ""
	}
	return services.WatchURL(t.Key)
}

// Video types in order of preference.
var videoTypePriority = []string{"trailer", "teaser", "clip", "behind the scenes"}

const videoSite = "youtube"

// PickVideo selects the best playable video: YouTube only, by type priority, official first within a type.
func PickVideo(videos []models.Video) (models.Video, bool) {
	for _, kind := range videoTypePriority {
		var fallback *models.Video
		for i := range videos {
			v := &videos[i]
			if !strings.EqualFold(v.Site, videoSite) || !strings.EqualFold(v.Type, kind) || v.Key == "" {
				continue
			}
			if v.Official {
				return *v, true
			}
			if fallback == nil {
				fallback = v
			}
		}
		if fallback != nil {
			return *fallback, true
		}
	}
	return models.Video{}, false
}

// ResolveTrailer opens the trailer modal for movie and looks up a playable video.
//
// The movie's video listing is tried first, then the video search. Lookup failures are logged and
// end in [TrailerNotFound]. A later call, [Feed.CloseTrailer], [Feed.Close] or [Feed.Reset]
// supersedes the lookup; its result is then dropped and [ErrStale] returned.
func (f *Feed) ResolveTrailer(ctx context.Context, movie models.Movie) (Trailer, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Trailer{}, ErrClosed
	}
	f.trailerSeq++
	seq := f.trailerSeq
	f.trailer = Trailer{MovieID: movie.ID, Title: movie.Title, Status: TrailerResolving, Open: true}
	ctx, cancel := f.bind(ctx)
	f.mu.Unlock()
	defer cancel()

	key, source := f.lookupTrailer(ctx, movie)

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.trailerSeq {
		return f.trailer, ErrStale
	}

	if key == "" {
		f.trailer.Status = TrailerNotFound
		f.logger.Info("no trailer found", "movie", movie.ID)
	} else {
		f.trailer.Status = TrailerFound
		f.trailer.Key = key
		f.trailer.Source = source
		f.logger.Info("trailer resolved", "movie", movie.ID, "source", source)
	}
	return f.trailer, nil
}

func (f *Feed) lookupTrailer(ctx context.Context, movie models.Movie) (key, source string) {
	videos, err := f.api.Videos(ctx, movie.ID)
	if err != nil {
		f.logger.Warn("video listing failed", "movie", movie.ID, "error", err)
	} else if v, ok := PickVideo(videos); ok {
		return v.Key, SourceVideos
	}

	if f.search == nil || ctx.Err() != nil {
		return "", ""
	}

	key, err = f.search.SearchTrailer(ctx, movie.Title)
	if err != nil {
		f.logger.Warn("trailer search failed", "movie", movie.ID, "title", movie.Title, "error", err)
		return "", ""
	}
	return key, SourceSearch
}

// CloseTrailer closes the modal and drops any pending lookup.
func (f *Feed) CloseTrailer() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trailerSeq++
	f.trailer = Trailer{}
}

// Trailer returns the current trailer state.
func (f *Feed) Trailer() Trailer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trailer
}

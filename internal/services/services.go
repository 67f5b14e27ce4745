// package services defines the interfaces for the external HTTP APIs the catalog client consumes
//
// TMDB (movies metadata), YouTube Data API (video search), Firebase Authentication (identity)
package services

import (
	"context"
	"time"

	"github.com/desertthunder/cinefeed/internal/models"
)

// MoviesService is the movies metadata API used by the catalog feed.
type MoviesService interface {
	// Genres retrieves the genre lookup table.
	Genres(ctx context.Context) ([]models.Genre, error)

	// NowPlaying retrieves one page of the now-playing feed. Pages start at 1.
	NowPlaying(ctx context.Context, page int) (*models.Page, error)

	// Popular retrieves the first page of popular movies.
	Popular(ctx context.Context) ([]models.Movie, error)

	// Videos retrieves the video listing for a movie.
	Videos(ctx context.Context, movieID int) ([]models.Video, error)
}

// VideoSearchService is the fallback used when the metadata API has no trailer.
type VideoSearchService interface {
	// SearchTrailer returns the video key of the top result for "{title} trailer",
	// or [shared.ErrNotFound] when the search is empty.
	SearchTrailer(ctx context.Context, title string) (string, error)
}

// IdentityProvider defines the account operations of the identity provider.
//
// Every call either returns an [Account] or an error; provider rejections are reported as [*IdentityError].
// Signing out is local: the caller deletes its persisted session.
type IdentityProvider interface {
	// SignUp creates an email/password account and signs it in.
	SignUp(ctx context.Context, email, password string) (*Account, error)

	// SignInWithPassword signs an existing email/password account in.
	SignInWithPassword(ctx context.Context, email, password string) (*Account, error)

	// SignInWithIdp exchanges a federated provider id token (e.g. Google) for a session.
	SignInWithIdp(ctx context.Context, providerID, idToken string) (*Account, error)

	// UpdateProfile sets the display name of the signed-in account.
	UpdateProfile(ctx context.Context, idToken, displayName string) (*Account, error)

	// Lookup returns the account for a session token.
	Lookup(ctx context.Context, idToken string) (*Account, error)
}

// Provider ids reported in [Account.ProviderID].
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
)

// Account is the identity provider's view of a signed-in user.
type Account struct {
	LocalID      string
	Email        string
	DisplayName  string
	ProviderID   string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Session converts the account into a persistable session issued at now.
func (a *Account) Session(now time.Time) *models.Session {
	var expiresAt time.Time
	if a.ExpiresIn > 0 {
		expiresAt = now.Add(a.ExpiresIn)
	}
	return models.NewSession(a.LocalID, a.Email, a.DisplayName, a.ProviderID, a.IDToken, a.RefreshToken, expiresAt)
}

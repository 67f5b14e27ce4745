// package models defines the data model for the movie catalog client
package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// UnknownGenre is the display name used for genre ids missing from the lookup table.
const UnknownGenre = "Desconocido"

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Movie is a catalog entry from the movies metadata API.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	GenreIDs    []int   `json:"genre_ids"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date,omitempty"`
}

// HasOverview reports whether the movie carries a synopsis.
func (m Movie) HasOverview() bool {
	return m.Overview != ""
}

// PosterURL joins the poster path onto imageBase, or returns "" when there is no poster.
func (m Movie) PosterURL(imageBase string) string {
	if m.PosterPath == "" {
		return ""
	}
	return strings.TrimRight(imageBase, "/") + "/" + strings.TrimLeft(m.PosterPath, "/")
}

// Stars converts the 0-10 vote average into full stars out of five.
func (m Movie) Stars() int {
	stars := int(math.Round(m.VoteAverage / 2))
	return max(0, min(5, stars))
}

// HasAnyGenre reports whether the movie is tagged with at least one genre of set.
func (m Movie) HasAnyGenre(set map[int]struct{}) bool {
	for _, id := range m.GenreIDs {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// Year extracts the year from the release date, or 0 when unknown.
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Genre is an entry of the metadata API genre list.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreTable is the read-only genre lookup built once per feed.
type GenreTable map[int]string

// NewGenreTable indexes genres by id.
func NewGenreTable(genres []Genre) GenreTable {
	table := make(GenreTable, len(genres))
	for _, g := range genres {
		table[g.ID] = g.Name
	}
	return table
}

// Name returns the display name for id, or [UnknownGenre].
func (t GenreTable) Name(id int) string {
	if name, ok := t[id]; ok {
		return name
	}
	return UnknownGenre
}

// Names maps ids to display names, preserving order.
func (t GenreTable) Names(ids []int) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = t.Name(id)
	}
	return names
}

// Page is one page of a paginated movie listing.
type Page struct {
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	Results    []Movie `json:"results"`
}

// Video is an entry of a movie's video listing.
type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// Session is the identity provider session persisted between runs.
type Session struct {
	id           string
	sequence     int
	userID       string
	email        string
	displayName  string
	providerID   string
	idToken      string
	refreshToken string
	expiresAt    time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewSession creates a session for the signed-in user. The ID is assigned when persisted.
func NewSession(userID, email, displayName, providerID, idToken, refreshToken string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		userID:       userID,
		email:        email,
		displayName:  displayName,
		providerID:   providerID,
		idToken:      idToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Sequence() int        { return s.sequence }
func (s *Session) UserID() string       { return s.userID }
func (s *Session) Email() string        { return s.email }
func (s *Session) DisplayName() string  { return s.displayName }
func (s *Session) ProviderID() string   { return s.providerID }
func (s *Session) IDToken() string      { return s.idToken }
func (s *Session) RefreshToken() string { return s.refreshToken }
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

func (s *Session) SetID(id string)                { s.id = id }
func (s *Session) SetSequence(seq int)            { s.sequence = seq }
func (s *Session) SetDisplayName(name string)     { s.displayName = name }
func (s *Session) SetCreatedAt(t time.Time)       { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time)       { s.updatedAt = t }

// Expired reports whether the provider token has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

// Validate checks the fields required to identify the user.
func (s *Session) Validate() error {
	if s.userID == "" {
		return fmt.Errorf("session user id is required")
	}
	if s.providerID == "" {
		return fmt.Errorf("session provider id is required")
	}
	if s.idToken == "" {
		return fmt.Errorf("session id token is required")
	}
	return nil
}

// Label is the name shown for the signed-in user.
func (s *Session) Label() string {
	if s.displayName != "" {
		return s.displayName
	}
	return s.email
}

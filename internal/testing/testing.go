// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/cinefeed/internal/models"
)

// ErrMock is returned by doubles configured to fail.
var ErrMock = errors.New("mock failure")

// EventLog records calls across several doubles so tests can assert their order.
type EventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *EventLog) Add(event string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *EventLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// MockMoviesService is a test double for [services.MoviesService] serving fixed pages.
type MockMoviesService struct {
	mu sync.Mutex

	GenreList   []models.Genre
	Pages       map[int]*models.Page
	PopularList []models.Movie
	VideoLists  map[int][]models.Video

	GenresErr  error
	PageErr    map[int]error
	VideosErr  error
	PopularErr error

	// Gate, when set, blocks NowPlaying until a value is received or ctx ends.
	Gate chan struct{}

	GenreCalls int
	PageCalls  []int
	VideoCalls []int
}

func (m *MockMoviesService) Genres(ctx context.Context) ([]models.Genre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenreCalls++
	return m.GenreList, m.GenresErr
}

func (m *MockMoviesService) NowPlaying(ctx context.Context, page int) (*models.Page, error) {
	m.mu.Lock()
	m.PageCalls = append(m.PageCalls, page)
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.PageErr[page]; err != nil {
		return nil, err
	}
	p, ok := m.Pages[page]
	if !ok {
		return nil, fmt.Errorf("%w: no page %d", ErrMock, page)
	}
	return p, nil
}

func (m *MockMoviesService) Popular(ctx context.Context) ([]models.Movie, error) {
	return m.PopularList, m.PopularErr
}

func (m *MockMoviesService) Videos(ctx context.Context, movieID int) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VideoCalls = append(m.VideoCalls, movieID)
	if m.VideosErr != nil {
		return nil, m.VideosErr
	}
	return m.VideoLists[movieID], nil
}

// Calls returns a copy of the requested page numbers.
func (m *MockMoviesService) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.PageCalls...)
}

// MockVideoSearch is a test double for [services.VideoSearchService].
type MockVideoSearch struct {
	mu      sync.Mutex
	Keys    map[string]string
	Err     error
	Queries []string
}

func (m *MockVideoSearch) SearchTrailer(ctx context.Context, title string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, title)
	if m.Err != nil {
		return "", m.Err
	}
	key, ok := m.Keys[title]
	if !ok {
		return "", fmt.Errorf("%w: no video for %s", ErrMock, title)
	}
	return key, nil
}

// MockSessionStore is an in-memory session store.
type MockSessionStore struct {
	mu       sync.Mutex
	Session  *models.Session
	SaveErr  error
	ClearErr error
	Log      *EventLog
}

func (m *MockSessionStore) Save(session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Log.Add("store.save")
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Session = session
	return nil
}

func (m *MockSessionStore) Current() (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Session == nil {
		return nil, errors.New("not authenticated")
	}
	return m.Session, nil
}

func (m *MockSessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Log.Add("store.clear")
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Session = nil
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// Movie builds a movie fixture.
func Movie(id int, title, overview string, genres ...int) models.Movie {
	return models.Movie{ID: id, Title: title, Overview: overview, GenreIDs: genres, VoteAverage: 7}
}

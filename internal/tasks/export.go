package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/cinefeed/internal/formatter"
	"github.com/desertthunder/cinefeed/internal/shared"
	"golang.org/x/time/rate"
)

const manifestName = "export_manifest.json"

// PosterOpts contains configuration for poster downloads.
type PosterOpts struct {
	NumWorkers int                                                   // Concurrent workers (default: 4, max: 10)
	RateLimit  float64                                               // Downloads per second (default: 5)
	Fetch      func(ctx context.Context, url string) ([]byte, error) // Image fetcher (default: [formatter.DownloadImage])
}

// PosterResult is the outcome of one poster download.
type PosterResult struct {
	MovieID int    `json:"movie_id"`
	Title   string `json:"title"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ExportResult summarizes a Markdown export.
type ExportResult struct {
	Directory    string         `json:"directory"`
	Title        string         `json:"title"`
	Category     string         `json:"category"`
	Movies       int            `json:"movies"`
	Files        []string       `json:"files"`
	Posters      []PosterResult `json:"posters,omitempty"`
	Downloaded   int            `json:"downloaded"`
	Failed       int            `json:"failed"`
	ManifestPath string         `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
}

type posterJob struct {
	movieID int
	title   string
	url     string
}

// ExportMarkdown writes l as {dir}/README.md plus {dir}/export_manifest.json.
//
// With withPosters set, poster images are downloaded into {dir}/posters by a rate limited worker pool.
// Failed downloads are recorded in the result and the README links the remote image instead.
func (e *Engine) ExportMarkdown(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	l *formatter.Listing,
	dir string,
	withPosters bool,
	opts PosterOpts,
) (*ExportResult, error) {
	if dir == "" {
		dir = fmt.Sprintf("cartelera_%d", time.Now().Unix())
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Directory: dir,
		Title:     l.Title,
		Category:  l.Category.String(),
		Movies:    len(l.Movies),
		Files:     []string{},
		CreatedAt: time.Now().UTC(),
	}

	posters := map[int]string{}
	if withPosters {
		results, err := e.downloadPosters(ctx, progress, l, filepath.Join(dir, "posters"), opts)
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			if res.Error != "" {
				result.Failed++
				continue
			}
			result.Downloaded++
			posters[res.MovieID] = "posters/" + filepath.Base(res.Path)
			result.Files = append(result.Files, res.Path)
		}
		result.Posters = results
	}

	readme := filepath.Join(dir, "README.md")
	e.sendProgress(progress, writeExportUpdate(readme))
	md, err := formatter.WriteMarkdownExport(l, dir, posters)
	if err != nil {
		return nil, fmt.Errorf("markdown export failed: %w", err)
	}
	result.Files = append(result.Files, md.Files...)

	manifestPath := filepath.Join(dir, manifestName)
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("markdown export written", "dir", dir, "movies", result.Movies, "posters", result.Downloaded, "failed", result.Failed)
	return result, nil
}

// downloadPosters fetches every poster of l into dir, returning one result per movie with a poster.
func (e *Engine) downloadPosters(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	l *formatter.Listing,
	dir string,
	opts PosterOpts,
) ([]PosterResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Fetch == nil {
		opts.Fetch = func(ctx context.Context, url string) ([]byte, error) {
			return formatter.DownloadImage(url)
		}
	}

	queue := make([]posterJob, 0, len(l.Movies))
	for _, m := range l.Movies {
		if url := m.PosterURL(l.ImageBase); url != "" {
			queue = append(queue, posterJob{movieID: m.ID, title: m.Title, url: url})
		}
	}
	if len(queue) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create poster directory: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan posterJob, len(queue))
	results := make(chan PosterResult, len(queue))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.posterWorker(ctx, &wg, jobs, results, dir, opts)
	}

	go func() {
		defer close(jobs)
		for _, job := range queue {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- job
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]PosterResult, 0, len(queue))
	for res := range results {
		collected = append(collected, res)
		if res.Error == "" {
			e.sendProgress(progress, posterCompletedUpdate(len(collected), len(queue), res.Title))
		} else {
			e.logger.Warn("failed to download poster", "movie", res.MovieID, "error", res.Error)
			e.sendProgress(progress, posterFailedUpdate(len(collected), len(queue), res.Title, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return collected, fmt.Errorf("poster download interrupted: %w", err)
	}
	return collected, nil
}

// posterWorker downloads posters from the jobs channel.
func (e *Engine) posterWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan posterJob,
	results chan<- PosterResult,
	dir string,
	opts PosterOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := PosterResult{MovieID: job.movieID, Title: job.title}
		data, err := opts.Fetch(ctx, job.url)
		if err != nil {
			res.Error = err.Error()
			results <- res
			continue
		}

		path := filepath.Join(dir, fmt.Sprintf("%d.jpg", job.movieID))
		if err := os.WriteFile(path, data, 0644); err != nil {
			res.Error = fmt.Sprintf("failed to save poster: %v", err)
		} else {
			res.Path = path
		}
		results <- res
	}
}

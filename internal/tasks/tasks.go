// package tasks implements the multi-step catalog operations used by exports.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinefeed/internal/catalog"
	"github.com/desertthunder/cinefeed/internal/shared"
)

// Pager is the part of the catalog feed used to accumulate pages. Implemented by [catalog.Feed].
type Pager interface {
	Mount(ctx context.Context) error
	LoadNext(ctx context.Context) error
	Snapshot() catalog.Snapshot
}

// LoadResult summarizes a [Engine.LoadPages] run.
type LoadResult struct {
	Pages     int  // Pages held by the feed
	Movies    int  // Movies shown after filtering
	Total     int  // Movies accumulated before filtering
	Exhausted bool // The last page was reached before the requested count
}

// Engine runs catalog tasks.
type Engine struct {
	logger *log.Logger
}

// NewEngine creates an Engine logging through logger.
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{logger: shared.WithLogger(logger, "component", "tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// LoadPages mounts the feed and loads pages until it holds pages pages or the last one is reached.
//
// A failed fetch halts the feed; its user-facing message is returned wrapped in [shared.ErrAPIRequest].
func (e *Engine) LoadPages(ctx context.Context, progress chan<- ProgressUpdate, feed Pager, pages int) (*LoadResult, error) {
	if pages < 1 {
		return nil, fmt.Errorf("%w: pages must be at least 1", shared.ErrInvalidArgument)
	}

	e.sendProgress(progress, mountFeedUpdate(pages))
	if err := feed.Mount(ctx); err != nil {
		e.logger.Error("failed to mount feed", "error", err)
		return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, feed.Snapshot().Err)
	}
	e.sendProgress(progress, loadPageUpdate(1, pages, feed.Snapshot().Total))

	result := &LoadResult{}
	for step := 2; step <= pages; step++ {
		err := feed.LoadNext(ctx)
		if errors.Is(err, catalog.ErrExhausted) {
			result.Exhausted = true
			e.sendProgress(progress, lastPageUpdate(step-1, pages))
			break
		}
		if err != nil {
			e.logger.Error("failed to load page", "step", step, "error", err)
			return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, feed.Snapshot().Err)
		}
		e.sendProgress(progress, loadPageUpdate(step, pages, feed.Snapshot().Total))
	}

	snap := feed.Snapshot()
	result.Pages = snap.Page
	result.Movies = len(snap.Movies)
	result.Total = snap.Total
	e.logger.Info("pages loaded", "pages", result.Pages, "movies", result.Movies, "total", result.Total)
	return result, nil
}

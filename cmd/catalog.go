package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/cinefeed/internal/catalog"
	"github.com/desertthunder/cinefeed/internal/formatter"
	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/routes"
	"github.com/desertthunder/cinefeed/internal/shared"
	"github.com/desertthunder/cinefeed/internal/tasks"
	"github.com/urfave/cli/v3"
)

const listingTitle = "Cartelera"

// openFeed resolves the catalog route and returns a feed bound to the session's gateway.
//
// Without a session the route guard redirects to the login view and [shared.ErrNotAuthenticated] is returned.
func (r *Runner) openFeed(cmd *cli.Command) (*catalog.Feed, error) {
	gw, _, err := r.gateway()
	if err != nil {
		return nil, err
	}

	if route := routes.Resolve(routes.Catalog.String(), gw); route != routes.Catalog {
		r.logger.Debug("catalog redirected", "route", route)
		return nil, fmt.Errorf("%w: run 'cinefeed auth login' first", shared.ErrNotAuthenticated)
	}

	filter := catalog.Category(r.config.Catalog.DefaultFilter)
	if cmd.IsSet("filter") {
		if filter, err = catalog.ParseCategory(cmd.String("filter")); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
	}
	return r.newFeed(gw, filter)
}

// CatalogGenres prints the genre table.
func (r *Runner) CatalogGenres(ctx context.Context, cmd *cli.Command) error {
	feed, err := r.openFeed(cmd)
	if err != nil {
		return err
	}
	defer feed.Close()

	if err := feed.Mount(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	genres := feed.Snapshot().Genres
	ids := make([]int, 0, len(genres))
	for id := range genres {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	if cmd.Bool("json") {
		entries := make([]models.Genre, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, models.Genre{ID: id, Name: genres[id]})
		}
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader(fmt.Sprintf("Genres (%d)", len(ids)))
	for _, id := range ids {
		r.writePlain("%6d  %s\n", id, genres[id])
	}
	return nil
}

// CatalogList loads pages of the now-playing feed and prints or exports them.
func (r *Runner) CatalogList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	pages := int(cmd.Int("pages"))
	if pages < 1 {
		return fmt.Errorf("%w: --pages must be at least 1", shared.ErrInvalidArgument)
	}

	feed, err := r.openFeed(cmd)
	if err != nil {
		return err
	}
	defer feed.Close()

	progress, done := r.reportProgress()
	defer done()

	engine := tasks.NewEngine(r.logger)
	loaded, err := engine.LoadPages(ctx, progress, feed, pages)
	if err != nil {
		return err
	}
	if loaded.Exhausted {
		r.logger.Info("reached the last page", "page", loaded.Pages)
	}

	snap := feed.Snapshot()
	r.logger.Info("loaded catalog", "page", snap.Page, "movies", len(snap.Movies), "total", snap.Total, "filter", snap.Filter)
	listing := formatter.NewListing(listingTitle, snap, r.config.Credentials.TMDB.ImageBaseURL)

	output := cmd.String("output")
	switch {
	case output == "":
		return formatter.Write(r.output, listing, format)
	case format == formatter.Markdown:
		result, err := engine.ExportMarkdown(ctx, progress, listing, output, cmd.Bool("posters"), tasks.PosterOpts{})
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d movies to %s (%d posters, %d failed)\n", result.Movies, result.Directory, result.Downloaded, result.Failed)
	default:
		if err := formatter.WriteExport(listing, format, output); err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d movies to %s\n", len(listing.Movies), output)
	}
}

// reportProgress logs task progress until the returned stop function is called.
func (r *Runner) reportProgress() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 16)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase)
		}
	}()
	return progress, func() {
		close(progress)
		<-finished
	}
}

// CatalogPopular prints the popular listing.
func (r *Runner) CatalogPopular(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	feed, err := r.openFeed(cmd)
	if err != nil {
		return err
	}
	defer feed.Close()

	if err := feed.Mount(ctx); err != nil {
		r.logger.Warn("genre names unavailable", "error", err)
	}
	movies, err := feed.Popular(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	snap := feed.Snapshot()
	listing := &formatter.Listing{
		Title:     "Populares",
		Category:  snap.Filter,
		Movies:    movies,
		Genres:    snap.Genres,
		ImageBase: r.config.Credentials.TMDB.ImageBaseURL,
		Page:      1,
		Total:     len(movies),
	}
	return formatter.Write(r.output, listing, format)
}

// CatalogTrailer resolves a movie's trailer and prints its watch URL.
func (r *Runner) CatalogTrailer(ctx context.Context, cmd *cli.Command) error {
	feed, err := r.openFeed(cmd)
	if err != nil {
		return err
	}
	defer feed.Close()

	movie := models.Movie{ID: int(cmd.Int("id")), Title: cmd.String("title")}
	if movie.Title == "" {
		movie.Title = fmt.Sprintf("%d", movie.ID)
	}

	trailer, err := feed.ResolveTrailer(ctx, movie)
	if err != nil {
		return err
	}
	if trailer.Status != catalog.TrailerFound {
		return fmt.Errorf("%w: no trailer for movie %d", shared.ErrNotFound, movie.ID)
	}

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(trailer.URL()); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}
	return r.writePlain("%s\n", trailer.URL())
}

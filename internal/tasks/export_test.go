package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/cinefeed/internal/catalog"
	"github.com/desertthunder/cinefeed/internal/formatter"
	"github.com/desertthunder/cinefeed/internal/models"
	"github.com/desertthunder/cinefeed/internal/shared"
	tu "github.com/desertthunder/cinefeed/internal/testing"
)

func exportListing(imageBase string) *formatter.Listing {
	movies := []models.Movie{
		tu.Movie(1, "Coco", "sinopsis", 16),
		tu.Movie(2, "Roto", "sinopsis", 16),
		tu.Movie(3, "Sin póster", "sinopsis", 16),
	}
	movies[0].PosterPath = "/coco.jpg"
	movies[1].PosterPath = "/roto.jpg"

	return &formatter.Listing{
		Title:     "Cartelera",
		Category:  catalog.Family,
		Movies:    movies,
		Genres:    models.NewGenreTable([]models.Genre{{ID: 16, Name: "Animación"}}),
		ImageBase: imageBase,
		Page:      1,
		Total:     3,
	}
}

func TestExportMarkdown(t *testing.T) {
	engine := NewEngine(shared.NewLogger(io.Discard))

	t.Run("downloads posters with partial failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/coco.jpg" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte("jpeg"))
		}))
		defer srv.Close()

		dir := filepath.Join(t.TempDir(), "export")
		progress := make(chan ProgressUpdate, 10)

		result, err := engine.ExportMarkdown(context.Background(), progress, exportListing(srv.URL), dir, true, PosterOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Downloaded != 1 || result.Failed != 1 || len(result.Posters) != 2 {
			t.Errorf("unexpected result %+v", result)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "posters", "1.jpg"))
		readme := tu.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "![Póster](posters/1.jpg)") {
			t.Errorf("expected local poster link, got:\n%s", readme)
		}
		if !strings.Contains(readme, "![Póster]("+srv.URL+"/roto.jpg)") {
			t.Errorf("failed download should link the remote poster, got:\n%s", readme)
		}

		var manifest ExportResult
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, result.ManifestPath)), &manifest); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if manifest.Category != "toda-la-familia" || manifest.Movies != 3 || manifest.Downloaded != 1 {
			t.Errorf("unexpected manifest %+v", manifest)
		}

		phases := map[Phase]int{}
		for _, u := range drain(progress) {
			phases[u.Phase]++
		}
		if phases[DownloadPosters] != 2 || phases[WriteExport] != 1 {
			t.Errorf("unexpected progress %v", phases)
		}
	})

	t.Run("bounded workers", func(t *testing.T) {
		var active, peak atomic.Int32
		fetch := func(ctx context.Context, url string) ([]byte, error) {
			n := active.Add(1)
			defer active.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			return []byte(url), nil
		}

		l := exportListing("https://img")
		for i := 10; i < 20; i++ {
			m := tu.Movie(i, fmt.Sprintf("M%d", i), "sinopsis")
			m.PosterPath = fmt.Sprintf("/%d.jpg", i)
			l.Movies = append(l.Movies, m)
		}

		result, err := engine.ExportMarkdown(context.Background(), nil, l, t.TempDir(), true, PosterOpts{NumWorkers: 2, RateLimit: 1000, Fetch: fetch})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Downloaded != 12 {
			t.Errorf("expected 12 posters, got %d", result.Downloaded)
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 concurrent downloads, got %d", peak.Load())
		}
	})

	t.Run("without posters", func(t *testing.T) {
		dir := t.TempDir()
		called := false
		fetch := func(ctx context.Context, url string) ([]byte, error) {
			called = true
			return nil, nil
		}

		result, err := engine.ExportMarkdown(context.Background(), nil, exportListing("https://img"), dir, false, PosterOpts{Fetch: fetch})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if called || result.Downloaded != 0 {
			t.Error("posters should not be fetched")
		}
		if !strings.Contains(tu.MustReadFile(t, filepath.Join(dir, "README.md")), "![Póster](https://img/coco.jpg)") {
			t.Error("expected remote poster link")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := engine.ExportMarkdown(ctx, nil, exportListing("https://img"), t.TempDir(), true, PosterOpts{})
		if err == nil || !strings.Contains(err.Error(), "interrupted") {
			t.Errorf("expected interrupted error, got %v", err)
		}
	})
}

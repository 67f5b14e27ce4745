package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/cinefeed/internal/models"
)

var (
	_ list.Item = movieItem{}
)

// movieItem wraps [models.Movie] to implement [list.Item] as a movie card.
type movieItem struct {
	movie  models.Movie
	genres []string
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string {
	title := i.movie.Title
	if year := i.movie.Year(); year > 0 {
		title = fmt.Sprintf("%s (%d)", title, year)
	}
	return fmt.Sprintf("%s  %s", styles.star.Render(Stars(i.movie.Stars())), title)
}
func (i movieItem) Description() string {
	desc := i.movie.Overview
	if len(i.genres) > 0 {
		desc = fmt.Sprintf("%s • %s", strings.Join(i.genres, ", "), desc)
	}
	return desc
}

// Stars renders n filled stars out of five.
func Stars(n int) string {
	n = max(0, min(5, n))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

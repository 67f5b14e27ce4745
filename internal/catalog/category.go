package catalog

import (
	"fmt"
	"strings"

	"github.com/desertthunder/cinefeed/internal/models"
)

// ErrUnknownCategory is returned for a category name outside the fixed set.
var ErrUnknownCategory = fmt.Errorf("unknown category")

// Category is an audience bucket mapping to a fixed set of genre ids.
type Category string

const (
	None     Category = ""
	Family   Category = "toda-la-familia"
	Children Category = "infancias"
	Teens    Category = "adolescentes"
	Adults   Category = "adultos"
)

const noneAlias = "ninguno"

// DefaultCategory is selected when a feed is created without a filter.
const DefaultCategory = Family

var categoryGenres = map[Category][]int{
	Adults:   {18, 27, 53, 80, 10752, 9648},
	Teens:    {28, 12, 878, 14, 16},
	Children: {16, 10751, 35},
	Family:   {10751, 35, 16, 14},
}

var categoryLabels = map[Category]string{
	None:     "Todas",
	Family:   "Toda la familia",
	Children: "Infancias",
	Teens:    "Adolescentes",
	Adults:   "Adultos",
}

// Categories lists the selectable categories in display order.
func Categories() []Category {
	return []Category{Family, Children, Teens, Adults, None}
}

// ParseCategory resolves a category name. Empty and "ninguno" select no filter.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == noneAlias {
		return None, nil
	}
	c := Category(name)
	if _, ok := categoryLabels[c]; !ok {
		return None, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return c, nil
}

func (c Category) String() string {
	if c == None {
		return noneAlias
	}
	return string(c)
}

// Label is the display name of the category.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Genres returns a copy of the genre ids of the category; nil for [None].
func (c Category) Genres() []int {
	return append([]int(nil), categoryGenres[c]...)
}

// Next cycles through [Categories].
func (c Category) Next() Category {
	all := Categories()
	for i, cat := range all {
		if cat == c {
			return all[(i+1)%len(all)]
		}
	}
	return DefaultCategory
}

func (c Category) set() map[int]struct{} {
	ids := categoryGenres[c]
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Filter returns the movies whose genres intersect the category, preserving order.
// [None] returns a copy of movies.
func Filter(movies []models.Movie, c Category) []models.Movie {
	set := c.set()
	out := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if set == nil || m.HasAnyGenre(set) {
			out = append(out, m)
		}
	}
	return out
}

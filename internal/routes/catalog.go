package routes

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"busstops/internal/transit"
)

// Source provides the routes a catalog is built from.
type Source interface {
	Routes(ctx context.Context) ([]transit.Route, error)
}

// StaticSource serves a fixed list, DefaultRoutes when empty.
type StaticSource []transit.Route

func (s StaticSource) Routes(context.Context) ([]transit.Route, error) {
	if len(s) == 0 {
		return DefaultRoutes(), nil
	}
	out := make([]transit.Route, len(s))
	copy(out, s)
	return out, nil
}

func DefaultRoutes() []transit.Route {
	return []transit.Route{
		{ID: "1", Number: "431", Name: "Palhoça/Biguaçu"},
		{ID: "2", Number: "666", Name: "São Sebastião"},
		{ID: "3", Number: "101", Name: "Centro - Via Expressa"},
		{ID: "4", Number: "205", Name: "Trindade - UFSC"},
		{ID: "5", Number: "847", Name: "Rio Tavares - Carianos"},
	}
}

type Catalog struct {
	routes []transit.Route
	folded []string // case folded names, same order as routes
}

func NewCatalog(rs []transit.Route) *Catalog {
	c := &Catalog{
		routes: make([]transit.Route, len(rs)),
		folded: make([]string, len(rs)),
	}
	copy(c.routes, rs)
	fold := cases.Fold()
	for i, r := range rs {
		c.folded[i] = fold.String(r.Name)
	}
	return c
}

// LoadCatalog builds a catalog from src.
func LoadCatalog(ctx context.Context, src Source) (*Catalog, error) {
	rs, err := src.Routes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	return NewCatalog(rs), nil
}

func (c *Catalog) Len() int { return len(c.routes) }

func (c *Catalog) All() []transit.Route {
	out := make([]transit.Route, len(c.routes))
	copy(out, c.routes)
	return out
}

// Search returns routes whose number contains text, or whose name contains
// it ignoring case. Empty text matches everything.
func (c *Catalog) Search(text string) []transit.Route {
	if text == "" {
		return c.All()
	}
	needle := cases.Fold().String(text)
	out := make([]transit.Route, 0)
	for i, r := range c.routes {
		if strings.Contains(r.Number, text) || strings.Contains(c.folded[i], needle) {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the route with exactly this number.
func (c *Catalog) Find(number string) (transit.Route, bool) {
	number = strings.TrimSpace(number)
	for _, r := range c.routes {
		if r.Number == number {
			return r, true
		}
	}
	return transit.Route{}, false
}

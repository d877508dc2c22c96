package routes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busstops/internal/transit"
)

func numbers(rs []transit.Route) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Number
	}
	return out
}

func TestSearch(t *testing.T) {
	c := NewCatalog(DefaultRoutes())

	tests := []struct {
		text string
		want []string
	}{
		{"", []string{"431", "666", "101", "205", "847"}},
		{"4", []string{"431", "847"}},
		{"10", []string{"101"}},
		{"centro", []string{"101"}},
		{"UFSC", []string{"205"}},
		{"ufsc", []string{"205"}},
		{"SÃO", []string{"666"}},
		{"são sebastião", []string{"666"}},
		{"-", []string{"101", "205", "847"}},
		{"999", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, numbers(c.Search(tt.text)))
		})
	}
}

func TestSearchDoesNotExposeCatalog(t *testing.T) {
	c := NewCatalog(DefaultRoutes())
	got := c.Search("")
	got[0].Name = "x"
	assert.Equal(t, "Palhoça/Biguaçu", c.All()[0].Name)
}

func TestFind(t *testing.T) {
	c := NewCatalog(DefaultRoutes())

	r, ok := c.Find("205")
	require.True(t, ok)
	assert.Equal(t, "Trindade - UFSC", r.Name)

	r, ok = c.Find(" 847 ")
	require.True(t, ok)
	assert.Equal(t, "5", r.ID)

	_, ok = c.Find("20")
	assert.False(t, ok)
}

type failingSource struct{}

func (failingSource) Routes(context.Context) ([]transit.Route, error) {
	return nil, errors.New("boom")
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog(context.Background(), StaticSource(nil))
	require.NoError(t, err)
	assert.Equal(t, 5, c.Len())

	c, err = LoadCatalog(context.Background(), StaticSource{{ID: "9", Number: "900", Name: "Teste"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"900"}, numbers(c.All()))

	_, err = LoadCatalog(context.Background(), failingSource{})
	assert.ErrorContains(t, err, "load routes")
}

package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := ParseCatalog("")
	require.NoError(t, err)

	assert.Equal(t, "HD30M", c.Resolve("30M"))
	assert.Equal(t, "HD60M", c.Resolve("60M"))
	assert.Equal(t, "HD200M", c.Resolve("200M"))
	assert.Equal(t, []Product{{"30M", "HD30M"}, {"60M", "HD60M"}, {"200M", "HD200M"}}, c.Products())
}

func TestResolveUnknownCodePassesThrough(t *testing.T) {
	c := NewCatalog(DefaultProducts)

	assert.Equal(t, "HD999M", c.Resolve("HD999M"))
	assert.False(t, c.Contains("HD999M"))
}

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []Product
		wantErr bool
	}{
		{name: "custom order kept", raw: "200M:HD200M, 5M:HD5M", want: []Product{{"200M", "HD200M"}, {"5M", "HD5M"}}},
		{name: "duplicates ignored", raw: "5M:A,5M:B", want: []Product{{"5M", "A"}}},
		{name: "trailing comma", raw: "5M:A,", want: []Product{{"5M", "A"}}},
		{name: "missing sku", raw: "5M:", wantErr: true},
		{name: "missing separator", raw: "5M", wantErr: true},
		{name: "only commas", raw: ",,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCatalog(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Products())
		})
	}
}

func TestProductsReturnsCopy(t *testing.T) {
	c := NewCatalog(DefaultProducts)
	p := c.Products()
	p[0].SKU = "changed"

	assert.Equal(t, "HD30M", c.Resolve("30M"))
}

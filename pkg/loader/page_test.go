package loader

import (
	"net/url"
	"testing"

	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_Path(t *testing.T) {
	tests := []struct {
		name    string
		page    Page
		want    string
		wantErr bool
	}{
		{"number", PageNumber(3), "/petitions.json?page=3", false},
		{"first number", PageNumber(1), "/petitions.json?page=1", false},
		{"zero number", PageNumber(0), "", true},
		{"negative number", PageNumber(-1), "", true},
		{"path", PagePath("/petitions.json?page=2&state=all"), "/petitions.json?page=2&state=all", false},
		{"empty path", PagePath(""), "", true},
		{"blank path", PagePath("  "), "", true},
		{"query", PageQuery(url.Values{"state": {"open"}, "page": {"4"}}), "/petitions.json?page=4&state=open", false},
		{"empty query", PageQuery(nil), "/petitions.json", false},
		{"zero value", Page{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.page.Path()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPage)
				assert.Equal(t, "<invalid page>", tt.page.String())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, tt.page.String())
		})
	}
}

func TestNextPage(t *testing.T) {
	next := "https://petition.parliament.uk/petitions.json?page=2&state=all"
	page := &petition.Page{Links: petition.Links{Next: &next}}

	got, ok := NextPage(page)
	require.True(t, ok)
	assert.Equal(t, "/petitions.json?page=2&state=all", got.String())

	empty := ""
	_, ok = NextPage(&petition.Page{Links: petition.Links{Next: &empty}})
	assert.False(t, ok, "empty next link")

	_, ok = NextPage(&petition.Page{})
	assert.False(t, ok, "nil next link")

	_, ok = NextPage(nil)
	assert.False(t, ok, "nil page")
}

func TestNextPage_RelativeLink(t *testing.T) {
	next := "petitions.json?page=5"
	got, ok := NextPage(&petition.Page{Links: petition.Links{Next: &next}})
	require.True(t, ok)
	assert.Equal(t, "petitions.json?page=5", got.String())
}

func TestDetailPath(t *testing.T) {
	assert.Equal(t, "/petitions/131215.json", DetailPath(131215))
}

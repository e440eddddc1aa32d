// Package loader fetches petition pages and single petitions for the pager.
package loader

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/uk-petitions/pkg/petition"
)

// ListPath is the path of the petition list.
const ListPath = "/petitions.json"

// ErrInvalidPage is returned for a page descriptor that names no page.
var ErrInvalidPage = errors.New("invalid page descriptor")

type pageKind int

const (
	kindNone pageKind = iota
	kindNumber
	kindPath
	kindQuery
)

// Page describes which list page to load: a page number, a path taken from a
// pagination link, or a raw query passed through unchanged. The zero value is
// invalid.
type Page struct {
	kind   pageKind
	number int
	path   string
	query  url.Values
}

// PageNumber describes /petitions.json?page=n.
func PageNumber(n int) Page {
	return Page{kind: kindNumber, number: n}
}

// PagePath describes a page by path, e.g. "/petitions.json?page=2&state=all".
func PagePath(path string) Page {
	return Page{kind: kindPath, path: path}
}

// PageQuery describes /petitions.json with the given query.
func PageQuery(q url.Values) Page {
	return Page{kind: kindQuery, query: q}
}

// Path resolves the descriptor to a request path.
func (p Page) Path() (string, error) {
	switch p.kind {
	case kindNumber:
		if p.number < 1 {
			return "", fmt.Errorf("%w: page %d", ErrInvalidPage, p.number)
		}
		return ListPath + "?page=" + strconv.Itoa(p.number), nil
	case kindPath:
		if strings.TrimSpace(p.path) == "" {
			return "", fmt.Errorf("%w: empty path", ErrInvalidPage)
		}
		return p.path, nil
	case kindQuery:
		if len(p.query) == 0 {
			return ListPath, nil
		}
		return ListPath + "?" + p.query.Encode(), nil
	default:
		return "", ErrInvalidPage
	}
}

// String returns the resolved path, or a marker for an invalid descriptor.
func (p Page) String() string {
	path, err := p.Path()
	if err != nil {
		return "<invalid page>"
	}
	return path
}

// NextPage returns the descriptor of the page after page. The next link is
// absolute; everything from its last "/" onwards is kept as the path.
func NextPage(page *petition.Page) (Page, bool) {
	if !page.HasNext() {
		return Page{}, false
	}
	next := *page.Links.Next
	if i := strings.LastIndex(next, "/"); i >= 0 {
		next = next[i:]
	}
	return PagePath(next), true
}

// DetailPath is the path of a single petition.
func DetailPath(id petition.ID) string {
	return fmt.Sprintf("/petitions/%d.json", id)
}

package tableview

import (
	"net/url"
	"slices"
	"strings"
)

// DefaultPageSizes are the page sizes offered by the size selector.
var DefaultPageSizes = []int{5, 10, 15, 20}

// ColumnToggle is one entry of the column visibility menu.
type ColumnToggle struct {
	ID        string
	Label     string
	Visible   bool
	ToggleURL string
}

// HiddenField is a hidden form input carrying state across a GET form submit.
type HiddenField struct {
	Name  string
	Value string
}

// Page binds a View to the URL it was rendered from so templates can build
// links that step the state machine one transition at a time.
type Page struct {
	View
	State     State
	Path      string
	Extra     url.Values
	Toggles   []ColumnToggle
	Facets    map[string][]string
	PageSizes []int
}

// NewPage projects e for rendering at path. Extra carries parameters of the
// hosting page that every link must preserve.
func NewPage[R any](e *Engine[R], path string, extra url.Values, sizes []int) Page {
	if len(sizes) == 0 {
		sizes = DefaultPageSizes
	}
	p := Page{
		View:      e.View(),
		State:     e.State(),
		Path:      path,
		Extra:     extra,
		Facets:    make(map[string][]string),
		PageSizes: sizes,
	}
	for _, col := range e.Columns() {
		visible := e.ColumnVisible(col.ID)
		p.Toggles = append(p.Toggles, ColumnToggle{
			ID:        col.ID,
			Label:     col.Header,
			Visible:   visible,
			ToggleURL: p.URL(p.State.WithColumnVisibility(col.ID, !visible)),
		})
		if col.Filter == FilterSelect {
			p.Facets[col.ID] = e.FacetValues(col.ID)
		}
	}
	return p
}

// URL renders s as a link to the page.
func (p Page) URL(s State) string {
	return p.link(p.Path, s)
}

// Link renders the current state against another path, such as an export
// endpoint.
func (p Page) Link(path string) string {
	return p.link(path, p.State)
}

func (p Page) link(path string, s State) string {
	q := s.Query(p.Extra)
	if q == "" {
		return path
	}
	return path + "?" + q
}

// SortURL cycles the header's column to its next sort direction.
func (p Page) SortURL(h Header) string {
	return p.URL(p.State.WithSort(h.ID, h.NextSort))
}

// PageURL links to a 0-based page index.
func (p Page) PageURL(index int) string {
	return p.URL(p.State.WithPage(index))
}

// FirstURL links to the first page.
func (p Page) FirstURL() string { return p.PageURL(0) }

// PreviousURL links to the previous page.
func (p Page) PreviousURL() string { return p.PageURL(p.PageIndex - 1) }

// NextURL links to the next page.
func (p Page) NextURL() string { return p.PageURL(p.PageIndex + 1) }

// LastURL links to the last page.
func (p Page) LastURL() string { return p.PageURL(max(p.PageCount-1, 0)) }

// SizeURL switches to page size n.
func (p Page) SizeURL(n int) string {
	return p.URL(p.State.WithPageSize(n))
}

// FormFields lists the hidden inputs a filter form must carry. Filters and
// the page index are left out: the form supplies the former and a new
// filter always starts from the first page.
func (p Page) FormFields() []HiddenField {
	s := p.State.clone()
	s.GlobalFilter = ""
	s.ColumnFilters = nil
	s.PageIndex = 0
	q := s.Values()
	for key, values := range p.Extra {
		q[key] = append(q[key], values...)
	}
	keys := make([]string, 0, len(q))
	for key := range q {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	var out []HiddenField
	for _, key := range keys {
		for _, v := range q[key] {
			out = append(out, HiddenField{Name: key, Value: v})
		}
	}
	return out
}

// FilterParam is the query parameter name of a column filter.
func FilterParam(columnID string) string {
	return filterPrefix + columnID
}

// HasFilters reports whether any filter narrows the rows.
func (p Page) HasFilters() bool {
	if strings.TrimSpace(p.State.GlobalFilter) != "" {
		return true
	}
	for _, v := range p.State.ColumnFilters {
		if v != "" {
			return true
		}
	}
	return false
}

// ClearFiltersURL drops every filter, keeping sort, size and columns.
func (p Page) ClearFiltersURL() string {
	s := p.State.clone()
	s.GlobalFilter = ""
	s.ColumnFilters = nil
	s.PageIndex = 0
	return p.URL(s)
}

// HiddenColumnFilters lists active filters on columns that are not
// rendered, so a filter form does not silently drop them.
func (p Page) HiddenColumnFilters() []HiddenField {
	shown := make(map[string]bool, len(p.Headers))
	for _, h := range p.Headers {
		shown[h.ID] = true
	}
	var out []HiddenField
	for id, v := range p.State.ColumnFilters {
		if v != "" && !shown[id] {
			out = append(out, HiddenField{Name: FilterParam(id), Value: v})
		}
	}
	slices.SortFunc(out, func(a, b HiddenField) int { return strings.Compare(a.Name, b.Name) })
	return out
}

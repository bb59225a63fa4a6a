package tableview

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Query parameter names used by the URL codec.
const (
	ParamSearch   = "q"
	ParamSort     = "sort"
	ParamDir      = "dir"
	ParamPage     = "page"
	ParamSize     = "size"
	ParamHide     = "hide"
	ParamOrder    = "order"
	filterPrefix  = "f."
	listSeparator = ","
)

// State is the serialisable view state of an Engine. PageIndex is 0-based;
// a zero PageSize means "keep the engine default".
type State struct {
	GlobalFilter  string
	ColumnFilters map[string]string
	SortColumn    string
	SortDir       SortDirection
	PageIndex     int
	PageSize      int
	Hidden        []string
	Order         []string
}

// ParseState decodes view state from URL query values. Search and filter
// text is kept verbatim. The page parameter is 1-based; missing, negative
// or non-numeric pages decode to the first page.
func ParseState(q url.Values) State {
	s := State{
		GlobalFilter:  q.Get(ParamSearch),
		ColumnFilters: make(map[string]string),
	}
	for key, values := range q {
		if !strings.HasPrefix(key, filterPrefix) || len(values) == 0 {
			continue
		}
		id := strings.TrimPrefix(key, filterPrefix)
		if v := values[0]; id != "" && v != "" {
			s.ColumnFilters[id] = v
		}
	}
	if col := strings.TrimSpace(q.Get(ParamSort)); col != "" {
		s.SortColumn = col
		s.SortDir = SortAsc
		if parseDirection(q.Get(ParamDir)) == SortDesc {
			s.SortDir = SortDesc
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get(ParamPage))); err == nil && n > 1 {
		s.PageIndex = n - 1
	}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get(ParamSize))); err == nil && n > 0 {
		s.PageSize = n
	}
	s.Hidden = splitList(q.Get(ParamHide))
	s.Order = splitList(q.Get(ParamOrder))
	return s
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Values encodes the state as URL query values, omitting defaults.
func (s State) Values() url.Values {
	q := url.Values{}
	if s.GlobalFilter != "" {
		q.Set(ParamSearch, s.GlobalFilter)
	}
	for id, v := range s.ColumnFilters {
		if v != "" {
			q.Set(filterPrefix+id, v)
		}
	}
	if s.SortColumn != "" && s.SortDir != SortNone {
		q.Set(ParamSort, s.SortColumn)
		q.Set(ParamDir, string(s.SortDir))
	}
	if s.PageIndex > 0 {
		q.Set(ParamPage, strconv.Itoa(s.PageIndex+1))
	}
	if s.PageSize > 0 {
		q.Set(ParamSize, strconv.Itoa(s.PageSize))
	}
	if len(s.Hidden) > 0 {
		q.Set(ParamHide, strings.Join(s.Hidden, listSeparator))
	}
	if len(s.Order) > 0 {
		q.Set(ParamOrder, strings.Join(s.Order, listSeparator))
	}
	return q
}

// Query encodes the state merged with extra parameters, such as the
// selectors of the page hosting the table.
func (s State) Query(extra url.Values) string {
	q := s.Values()
	for key, values := range extra {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	return q.Encode()
}

func (s State) clone() State {
	out := s
	out.ColumnFilters = maps.Clone(s.ColumnFilters)
	out.Hidden = slices.Clone(s.Hidden)
	out.Order = slices.Clone(s.Order)
	return out
}

// WithPage returns a copy positioned on the 0-based page index.
func (s State) WithPage(index int) State {
	out := s.clone()
	out.PageIndex = max(index, 0)
	return out
}

// WithPageSize returns a copy with a new page size.
func (s State) WithPageSize(n int) State {
	out := s.clone()
	out.PageSize = n
	return out
}

// WithSort returns a copy sorted by column in direction dir; SortNone
// clears sorting.
func (s State) WithSort(columnID string, dir SortDirection) State {
	out := s.clone()
	if dir == SortNone {
		out.SortColumn, out.SortDir = "", SortNone
		return out
	}
	out.SortColumn, out.SortDir = columnID, dir
	return out
}

// WithColumnVisibility returns a copy with the column shown or hidden.
func (s State) WithColumnVisibility(columnID string, visible bool) State {
	out := s.clone()
	out.Hidden = slices.DeleteFunc(out.Hidden, func(id string) bool { return id == columnID })
	if !visible {
		out.Hidden = append(out.Hidden, columnID)
	}
	return out
}

// State captures the engine's current state.
func (e *Engine[R]) State() State {
	s := State{
		GlobalFilter:  e.globalFilter,
		ColumnFilters: maps.Clone(e.columnFilters),
		SortColumn:    e.sortColumn,
		SortDir:       e.sortDir,
		PageIndex:     e.pageIndex,
		PageSize:      e.pageSize,
		Order:         slices.Clone(e.order),
	}
	for _, col := range e.columns {
		if e.hidden[col.ID] {
			s.Hidden = append(s.Hidden, col.ID)
		}
	}
	return s
}

// Apply replaces the engine state with s. Sorting on unknown or
// non-sortable columns is dropped and the page index is clamped last.
func (e *Engine[R]) Apply(s State) {
	e.globalFilter = s.GlobalFilter
	e.columnFilters = make(map[string]string, len(s.ColumnFilters))
	for id, v := range s.ColumnFilters {
		if v != "" {
			e.columnFilters[id] = v
		}
	}
	e.setSort(s.SortColumn, s.SortDir)
	if s.PageSize > 0 {
		e.pageSize = s.PageSize
	}
	e.hidden = make(map[string]bool, len(s.Hidden))
	for _, id := range s.Hidden {
		e.hidden[id] = true
	}
	e.order = slices.Clone(s.Order)
	e.SetPageIndex(s.PageIndex)
}

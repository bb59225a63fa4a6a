package journal

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/kosha-admin/kosha/internal/tableview"
)

// Columns are the admin-action table columns.
func Columns() []tableview.Column[Entry] {
	return []tableview.Column[Entry]{
		{
			ID: "occurred_at", Header: "Time", Kind: tableview.KindTime, Sortable: true,
			Accessor: func(e Entry) any { return e.OccurredAt },
			Format:   formatTime,
		},
		{ID: "actor", Header: "Admin", Sortable: true, Accessor: func(e Entry) any { return e.Actor }},
		{ID: "action", Header: "Action", Filter: tableview.FilterSelect, Sortable: true, Accessor: func(e Entry) any { return e.Action }},
		{ID: "resource", Header: "Resource", Filter: tableview.FilterSelect, Sortable: true, Accessor: func(e Entry) any { return e.Resource }},
		{ID: "resource_id", Header: "Resource ID", Sortable: true, Accessor: func(e Entry) any { return e.ResourceID }},
		{ID: "detail", Header: "Detail", Accessor: func(e Entry) any { return formatDetail(e.Detail) }},
	}
}

func formatTime(v any) string {
	t, ok := v.(time.Time)
	if !ok || t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDetail(detail map[string]string) string {
	if len(detail) == 0 {
		return ""
	}
	parts := make([]string, 0, len(detail))
	for _, k := range slices.Sorted(maps.Keys(detail)) {
		parts = append(parts, k+"="+detail[k])
	}
	return strings.Join(parts, " ")
}

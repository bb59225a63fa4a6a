package dblogs

import (
	"github.com/kosha-admin/kosha/internal/dictapi"
	"github.com/kosha-admin/kosha/internal/tableview"
)

const displayTime = "02 Jan 2006 15:04:05"

// Columns are the report columns in display order.
func Columns() []tableview.Column[dictapi.DBLog] {
	return []tableview.Column[dictapi.DBLog]{
		{
			ID: "timestamp", Header: "Timestamp", Kind: tableview.KindTime, Sortable: true,
			Accessor: func(l dictapi.DBLog) any { return l.Timestamp },
			Format:   formatTimestamp,
		},
		{ID: "table_name", Header: "Table Name", Sortable: true, Accessor: func(l dictapi.DBLog) any { return l.TableName }},
		{ID: "record_id", Header: "Record ID", Kind: tableview.KindNumber, Sortable: true, Accessor: func(l dictapi.DBLog) any { return l.RecordID }},
		{ID: "operation", Header: "Operation", Filter: tableview.FilterSelect, Sortable: true, Accessor: func(l dictapi.DBLog) any { return l.Operation }},
		{ID: "db_manager_email", Header: "DB Manager Email", Sortable: true, Accessor: func(l dictapi.DBLog) any { return l.DBManagerEmail }},
		{ID: "affected_value", Header: "Affected Value", Sortable: true, Accessor: func(l dictapi.DBLog) any { return l.AffectedValue }},
	}
}

// formatTimestamp shows parseable timestamps in a fixed layout and passes
// anything else through untouched.
func formatTimestamp(v any) string {
	raw := tableview.Stringify(v)
	if t, ok := tableview.ParseTime(raw); ok {
		return t.Format(displayTime)
	}
	return raw
}

// newEngine builds the report engine. Rows have no natural key, so the
// source index identifies them.
func newEngine(logs []dictapi.DBLog, state tableview.State) *tableview.Engine[dictapi.DBLog] {
	e := tableview.New(Columns(), logs)
	e.Apply(state)
	return e
}

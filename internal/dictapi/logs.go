package dictapi

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Operations recorded by the backend.
const (
	OpCreate    = "CREATE"
	OpUpdate    = "UPDATE"
	OpDelete    = "DELETE"
	OpDeleteAll = "DELETE_ALL"
)

// DBLog is one database operation performed by a dictionary manager.
type DBLog struct {
	Timestamp      string `json:"timestamp"`
	TableName      string `json:"table_name"`
	RecordID       int64  `json:"record_id"`
	Operation      string `json:"operation"`
	DBManagerEmail string `json:"db_manager_email"`
	AffectedValue  string `json:"affected_value"`
}

// Month identifies a monthly log partition, formatted as "04_Apr".
type Month string

// MonthOf returns the partition holding t.
func MonthOf(t time.Time) Month {
	return Month(fmt.Sprintf("%02d_%s", int(t.Month()), t.Month().String()[:3]))
}

// Months lists all twelve partitions in calendar order.
func Months() []Month {
	out := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, MonthOf(time.Date(2000, m, 1, 0, 0, 0, 0, time.UTC)))
	}
	return out
}

// ParseMonth validates a partition name.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	for _, m := range Months() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("dictapi: unknown month %q", s)
}

// Label is the month's display name.
func (m Month) Label() string {
	if i := strings.IndexByte(string(m), '_'); i >= 0 {
		return string(m)[i+1:]
	}
	return string(m)
}

// GetDBLogs fetches the operations logged during month.
func (c *Client) GetDBLogs(ctx context.Context, month Month) ([]DBLog, error) {
	var logs []DBLog
	if err := c.get(ctx, &logs, "logs", "db", string(month)); err != nil {
		return nil, err
	}
	return logs, nil
}

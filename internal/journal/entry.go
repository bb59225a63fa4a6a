// Package journal records the mutations admins issue from the dashboard.
package journal

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the dashboard.
const (
	ActionWordCreate       = "word.create"
	ActionWordEdit         = "word.edit"
	ActionWordDelete       = "word.delete"
	ActionMeaningCreate    = "meaning.create"
	ActionMeaningDelete    = "meaning.delete"
	ActionMeaningDeleteAll = "meaning.delete_all"
	ActionDBLogsRefresh    = "dblogs.refresh"
)

// Resources an action applies to.
const (
	ResourceWord    = "word"
	ResourceMeaning = "meaning"
	ResourceDBLogs  = "dblogs"
)

// ErrInvalidEntry is returned for entries missing an action or resource.
var ErrInvalidEntry = errors.New("journal: entry requires action and resource")

// Entry is one recorded admin action.
type Entry struct {
	ID         uuid.UUID
	ActorID    int64
	Actor      string
	Action     string
	Resource   string
	ResourceID string
	Detail     map[string]string
	OccurredAt time.Time
}

func (e Entry) validate() error {
	if e.Action == "" || e.Resource == "" {
		return ErrInvalidEntry
	}
	return nil
}

package session

import (
	"context"
	"time"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
	"github.com/iota-uz/orgchart/pkg/serrors"
)

var (
	ErrSessionNotFound = serrors.NewError("ORGCHART_SESSION_NOT_FOUND", "session not found", "")
	ErrSessionConflict = serrors.NewError("ORGCHART_SESSION_CONFLICT", "session changed concurrently", "OrgChart.Errors.SessionConflict")
)

// Session is one viewer's chart state, persisted between requests.
type Session struct {
	ID         string          `json:"id"`
	Expanded   []string        `json:"expanded"`
	SelectedID string          `json:"selectedId,omitempty"`
	Direction  string          `json:"direction"`
	Filter     employee.Filter `json:"filter"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type Repository interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Updater is implemented by stores shared between processes. Update runs fn
// against the stored session (nil when absent) and writes its result only if
// nothing else wrote the session in between. fn may run more than once.
type Updater interface {
	Update(ctx context.Context, id string, fn func(current *Session) (*Session, error)) (*Session, error)
}

package services

import (
	"time"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

type RefreshedEvent struct {
	Generation  uint64
	Records     int
	Roots       RootInference
	Unreachable []string
	RefreshedAt time.Time
}

type RefreshFailedEvent struct {
	Generation uint64
	Err        error
}

type SessionUpdatedEvent struct {
	SessionID string
	Action    Action
	Expanded  int
	Selected  *employee.Record
}

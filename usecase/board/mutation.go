package board

import (
	"time"

	"github.com/fastygo/taskboard/domain"
)

// Kind names the user action behind a mutation.
type Kind string

const (
	KindCreate  Kind = "create"
	KindUpdate  Kind = "update"
	KindEdit    Kind = "edit"
	KindMove    Kind = "move"
	KindDelete  Kind = "delete"
	KindComment Kind = "comment"
)

// State is the lifecycle of one mutation: it starts pending and settles once.
type State string

const (
	StatePending    State = "pending"
	StateSucceeded  State = "succeeded"
	StateRolledBack State = "rolled_back"
)

// Mutation is the log entry of one optimistic change.
type Mutation struct {
	Seq       uint64
	Kind      Kind
	TaskID    string
	State     State
	Err       error
	StartedAt time.Time
	SettledAt time.Time
}

func (m Mutation) Settled() bool {
	return m.State != StatePending
}

// op is the in-flight side of a mutation, kept by the goroutine that issued it.
type op struct {
	seq      uint64
	kind     Kind
	taskID   string
	snapshot []domain.Task
	settled  uint64
}

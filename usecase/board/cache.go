package board

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/usecase"
)

const defaultLogSize = 64

// ErrStaleRefresh is returned by Refresh when a mutation started while the
// list was loading; the loaded list is dropped.
var ErrStaleRefresh = domain.NewError(domain.ErrCodeConflict, "refresh superseded by a newer mutation")

// Listener receives a copy of the task list after every change.
type Listener func(tasks []domain.Task)

// Cache is the client-side task list. Changes are applied optimistically and
// reconciled with the remote collection when the call settles.
//
// Every state change happens under mu; the lock is never held across a
// remote call. seq numbers every mutation, latest records the newest
// mutation per task so that a slow reply never overwrites newer state.
// settled counts list changes made when a mutation settles.
type Cache struct {
	remote usecase.Collection
	logger *zap.Logger
	now    func() domain.Timestamp

	mu      sync.Mutex
	tasks   []domain.Task
	loaded  bool
	seq     uint64
	pending int
	settled uint64
	latest  map[string]uint64
	log     []Mutation
	logSize int

	listeners    map[int]Listener
	nextListener int
	version      uint64

	// deliverMu orders listener calls; delivered is the newest version sent.
	deliverMu sync.Mutex
	delivered uint64

	refreshes     singleflight.Group
	cancelRefresh context.CancelFunc
}

func New(remote usecase.Collection, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		remote:    remote,
		logger:    logger,
		now:       domain.Now,
		latest:    make(map[string]uint64),
		logSize:   defaultLogSize,
		listeners: make(map[int]Listener),
	}
}

// Tasks returns a copy of the cached list.
func (c *Cache) Tasks() []domain.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CloneTasks(c.tasks)
}

func (c *Cache) Task(id string) (domain.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.tasks, id); i >= 0 {
		return c.tasks[i].Clone(), true
	}
	return domain.Task{}, false
}

// Loaded reports whether a refresh has ever been applied.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Mutations returns the in-flight and recently settled mutations, oldest first.
func (c *Cache) Mutations() []Mutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Mutation(nil), c.log...)
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cache) Subscribe(fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Refresh replaces the cache with the remote list. Concurrent calls share one
// request. If any mutation starts before the list arrives the result is
// discarded and ErrStaleRefresh is returned.
func (c *Cache) Refresh(ctx context.Context) error {
	ch := c.refreshes.DoChan("refresh", func() (interface{}, error) {
		return nil, c.refresh(ctx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (c *Cache) refresh(ctx context.Context) error {
	c.mu.Lock()
	startSeq := c.seq
	rctx, cancel := context.WithCancel(ctx)
	c.cancelRefresh = cancel
	c.mu.Unlock()
	defer cancel()

	tasks, err := c.remote.ListTasks(rctx)

	c.mu.Lock()
	c.cancelRefresh = nil
	if c.seq != startSeq || c.pending > 0 {
		c.mu.Unlock()
		c.logger.Debug("refresh discarded", zap.Uint64("seq", startSeq))
		return ErrStaleRefresh
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("refresh failed", zap.String("op", string(domain.OpFetch)), zap.Error(err))
		return err
	}
	c.tasks = domain.CloneTasks(tasks)
	if c.tasks == nil {
		c.tasks = []domain.Task{}
	}
	c.loaded = true
	ch := c.changedLocked()
	c.mu.Unlock()

	c.notify(ch)
	return nil
}

// CreateTask validates the draft, creates it remotely and appends the stored
// record. Nothing is shown before the collection assigns an id.
func (c *Cache) CreateTask(ctx context.Context, draft domain.Draft) (domain.Task, error) {
	if draft.Status == "" {
		draft.Status = domain.StatusTodo
	}
	if draft.Priority == "" {
		draft.Priority = domain.PriorityMedium
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if err := draft.Validate(); err != nil {
		return domain.Task{}, err
	}

	c.mu.Lock()
	o := c.beginLocked(KindCreate, "")
	c.mu.Unlock()

	created, err := c.remote.CreateTask(ctx, draft)

	c.mu.Lock()
	if err != nil {
		c.settleLocked(o, StateRolledBack, err)
		c.mu.Unlock()
		c.logFailure(o, err)
		return domain.Task{}, err
	}
	if indexOf(c.tasks, created.ID) < 0 {
		c.tasks = append(c.tasks, created.Clone())
	}
	c.latest[created.ID] = o.seq
	c.settled++
	c.settleLocked(o, StateSucceeded, nil)
	ch := c.changedLocked()
	c.mu.Unlock()

	c.notify(ch)
	return created.Clone(), nil
}

// UpdateTask replaces a cached task with task and sends it to the collection.
func (c *Cache) UpdateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	task.Normalize()
	if err := task.Validate(); err != nil {
		return domain.Task{}, err
	}
	return c.replace(ctx, KindUpdate, task.ID, func(domain.Task) (domain.Task, error) {
		return task.Clone(), nil
	})
}

// EditTask merges the edited fields into the cached task.
func (c *Cache) EditTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	return c.replace(ctx, KindEdit, id, func(current domain.Task) (domain.Task, error) {
		next := patch.Apply(current)
		next.Normalize()
		return next, next.Validate()
	})
}

// MoveTask changes only the status, as a drag between columns does.
func (c *Cache) MoveTask(ctx context.Context, id string, status domain.Status) (domain.Task, error) {
	if !status.IsValid() {
		return domain.Task{}, domain.Invalidf("invalid status %q", status)
	}
	return c.replace(ctx, KindMove, id, func(current domain.Task) (domain.Task, error) {
		next := current.Clone()
		next.Status = status
		return next, nil
	})
}

// AddComment shows a locally built comment at once and asks the collection to store it.
func (c *Cache) AddComment(ctx context.Context, id, text, author string) (domain.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Task{}, domain.Invalidf("comment text is required")
	}

	c.mu.Lock()
	i := indexOf(c.tasks, id)
	if i < 0 {
		c.mu.Unlock()
		return domain.Task{}, domain.ErrTaskNotFound
	}
	o := c.beginLocked(KindComment, id)
	optimistic, _ := c.tasks[i].AppendComment(text, author, c.now())
	c.tasks[i] = optimistic
	ch := c.changedLocked()
	c.mu.Unlock()
	c.notify(ch)

	stored, err := c.remote.AddComment(ctx, id, text, author)
	return c.finishComment(o, stored, err)
}

// DeleteTask removes the task at once and restores it if the collection refuses.
func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	c.mu.Lock()
	o := c.beginLocked(KindDelete, id)
	if i := indexOf(c.tasks, id); i >= 0 {
		c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
	}
	ch := c.changedLocked()
	c.mu.Unlock()
	c.notify(ch)

	err := c.remote.DeleteTask(ctx, id)

	c.mu.Lock()
	if err != nil {
		c.rollbackLocked(o)
		c.settleLocked(o, StateRolledBack, err)
		ch = c.changedLocked()
		c.mu.Unlock()
		c.notify(ch)
		c.logFailure(o, err)
		return err
	}
	c.settleLocked(o, StateSucceeded, nil)
	c.mu.Unlock()
	return nil
}

// replace applies build to the cached task optimistically and pushes the
// result to the collection.
func (c *Cache) replace(ctx context.Context, kind Kind, id string, build func(current domain.Task) (domain.Task, error)) (domain.Task, error) {
	c.mu.Lock()
	i := indexOf(c.tasks, id)
	if i < 0 {
		c.mu.Unlock()
		return domain.Task{}, domain.ErrTaskNotFound
	}
	next, err := build(c.tasks[i].Clone())
	if err != nil {
		c.mu.Unlock()
		return domain.Task{}, err
	}
	next.ID = id
	o := c.beginLocked(kind, id)
	c.tasks[i] = next
	ch := c.changedLocked()
	c.mu.Unlock()
	c.notify(ch)

	stored, err := c.remote.UpdateTask(ctx, next.Clone())
	return c.finish(o, stored, err)
}

// finish settles an optimistic update: adopt the stored record on success,
// roll back on failure.
func (c *Cache) finish(o *op, stored domain.Task, err error) (domain.Task, error) {
	c.mu.Lock()
	if err != nil {
		c.rollbackLocked(o)
		c.settleLocked(o, StateRolledBack, err)
		ch := c.changedLocked()
		c.mu.Unlock()
		c.notify(ch)
		c.logFailure(o, err)
		return domain.Task{}, err
	}

	changed := false
	if c.latest[o.taskID] == o.seq {
		if i := indexOf(c.tasks, o.taskID); i >= 0 {
			c.tasks[i] = stored.Clone()
			c.settled++
			changed = true
		}
	}
	c.settleLocked(o, StateSucceeded, nil)
	if !changed {
		c.mu.Unlock()
		return stored.Clone(), nil
	}
	ch := c.changedLocked()
	c.mu.Unlock()
	c.notify(ch)
	return stored.Clone(), nil
}

// finishComment settles a comment. Only the comment list of the stored record
// is taken; the other fields stay as the cache holds them, because a source may
// answer with a record that lacks changes it already accepted.
func (c *Cache) finishComment(o *op, stored domain.Task, err error) (domain.Task, error) {
	if err != nil {
		return c.finish(o, stored, err)
	}

	c.mu.Lock()
	i := indexOf(c.tasks, o.taskID)
	if i < 0 {
		c.settleLocked(o, StateSucceeded, nil)
		c.mu.Unlock()
		return stored.Clone(), nil
	}
	if c.latest[o.taskID] == o.seq {
		c.tasks[i].Comments = append([]domain.Comment{}, stored.Comments...)
		c.settled++
	}
	merged := c.tasks[i].Clone()
	c.settleLocked(o, StateSucceeded, nil)
	ch := c.changedLocked()
	c.mu.Unlock()
	c.notify(ch)
	return merged, nil
}

// beginLocked numbers a new mutation, snapshots the list and supersedes any
// refresh in flight.
func (c *Cache) beginLocked(kind Kind, taskID string) *op {
	c.seq++
	o := &op{
		seq:      c.seq,
		kind:     kind,
		taskID:   taskID,
		snapshot: domain.CloneTasks(c.tasks),
		settled:  c.settled,
	}
	if taskID != "" {
		c.latest[taskID] = o.seq
	}
	c.pending++
	if c.cancelRefresh != nil {
		c.cancelRefresh()
	}
	c.appendLogLocked(Mutation{
		Seq:       o.seq,
		Kind:      kind,
		TaskID:    taskID,
		State:     StatePending,
		StartedAt: time.Now(),
	})
	c.logger.Debug("mutation started",
		append(logger.TaskFields(string(kind), taskID), zap.Uint64("seq", o.seq))...)
	return o
}

// rollbackLocked undoes o. When nothing else started or settled since o, the
// whole snapshot comes back. Otherwise only o's task is restored, and only if
// no newer mutation targets it.
func (c *Cache) rollbackLocked(o *op) {
	if c.seq == o.seq && c.settled == o.settled {
		c.tasks = o.snapshot
		c.settled++
		return
	}
	if o.taskID == "" || c.latest[o.taskID] != o.seq {
		return
	}
	c.settled++

	before := indexOf(o.snapshot, o.taskID)
	now := indexOf(c.tasks, o.taskID)
	switch {
	case before < 0 && now >= 0:
		c.tasks = append(c.tasks[:now:now], c.tasks[now+1:]...)
	case before >= 0 && now >= 0:
		c.tasks[now] = o.snapshot[before].Clone()
	case before >= 0 && now < 0:
		at := before
		if at > len(c.tasks) {
			at = len(c.tasks)
		}
		restored := append([]domain.Task{}, c.tasks[:at]...)
		restored = append(restored, o.snapshot[before].Clone())
		c.tasks = append(restored, c.tasks[at:]...)
	}
}

func (c *Cache) settleLocked(o *op, state State, err error) {
	c.pending--
	for i := len(c.log) - 1; i >= 0; i-- {
		if c.log[i].Seq == o.seq {
			c.log[i].State = state
			c.log[i].Err = err
			c.log[i].SettledAt = time.Now()
			break
		}
	}
	c.trimLogLocked()
}

func (c *Cache) appendLogLocked(m Mutation) {
	c.log = append(c.log, m)
	c.trimLogLocked()
}

// trimLogLocked drops the oldest settled entries beyond logSize; pending ones stay.
func (c *Cache) trimLogLocked() {
	excess := len(c.log) - c.logSize
	if excess <= 0 {
		return
	}
	kept := c.log[:0]
	for _, m := range c.log {
		if excess > 0 && m.Settled() {
			excess--
			continue
		}
		kept = append(kept, m)
	}
	c.log = kept
}

// change is one list version waiting to be delivered to the listeners.
type change struct {
	version   uint64
	tasks     []domain.Task
	listeners []Listener
}

func (c *Cache) changedLocked() change {
	c.version++
	ch := change{version: c.version}
	if len(c.listeners) == 0 {
		return ch
	}
	ch.listeners = make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		ch.listeners = append(ch.listeners, fn)
	}
	ch.tasks = domain.CloneTasks(c.tasks)
	return ch
}

// notify delivers ch unless a newer version already went out, so listeners
// never see the list go back in time. Listeners run one change at a time and
// must not call back into the cache's mutating methods.
func (c *Cache) notify(ch change) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	if ch.version <= c.delivered {
		return
	}
	c.delivered = ch.version
	for _, fn := range ch.listeners {
		fn(domain.CloneTasks(ch.tasks))
	}
}

func (c *Cache) logFailure(o *op, err error) {
	c.logger.Warn("mutation rolled back",
		append(logger.TaskFields(string(o.kind), o.taskID), zap.Uint64("seq", o.seq), zap.Error(err))...)
}

func indexOf(tasks []domain.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

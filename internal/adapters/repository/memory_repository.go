package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// MemoryStore keeps every collection in process memory behind one lock so
// the multi-record writes are atomic. Records are cloned on the way in and
// out; callers never share state with the store.
type MemoryStore struct {
	mu sync.RWMutex

	goals   map[string]*domain.Goal
	archive map[string]*domain.ArchiveRecord
	tasks   map[string]*domain.Task
	events  map[string][]*domain.ActivityEvent
	users   map[string]*domain.User
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		goals:   make(map[string]*domain.Goal),
		archive: make(map[string]*domain.ArchiveRecord),
		tasks:   make(map[string]*domain.Task),
		events:  make(map[string][]*domain.ActivityEvent),
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) Goals() *InMemoryGoalRepository {
	return &InMemoryGoalRepository{s: s}
}

func (s *MemoryStore) Tasks() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{s: s}
}

func (s *MemoryStore) Activity() *InMemoryActivityRepository {
	return &InMemoryActivityRepository{s: s}
}

func (s *MemoryStore) Users() *InMemoryUserRepository {
	return &InMemoryUserRepository{s: s}
}

var (
	_ domain.GoalRepository     = (*InMemoryGoalRepository)(nil)
	_ domain.TaskRepository     = (*InMemoryTaskRepository)(nil)
	_ domain.ActivityRepository = (*InMemoryActivityRepository)(nil)
	_ domain.UserRepository     = (*InMemoryUserRepository)(nil)
)

type InMemoryGoalRepository struct {
	s *MemoryStore
}

func (r *InMemoryGoalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.goals[goal.ID] = goal.Clone()
	return nil
}

func (r *InMemoryGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	goal, ok := r.s.goals[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	return goal.Clone(), nil
}

func (r *InMemoryGoalRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	goals := make([]*domain.Goal, 0)
	for _, g := range r.s.goals {
		if g.UserID == userID {
			goals = append(goals, g.Clone())
		}
	}

	sort.Slice(goals, func(i, j int) bool {
		return goals[i].CreatedAt.After(goals[j].CreatedAt)
	})

	return goals, nil
}

func (r *InMemoryGoalRepository) SaveProgress(ctx context.Context, goal *domain.Goal, events []*domain.ActivityEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[goal.ID]; !ok {
		return domain.ErrGoalNotFound
	}

	r.s.goals[goal.ID] = goal.Clone()
	for _, e := range events {
		r.s.appendEvent(e)
	}
	return nil
}

func (r *InMemoryGoalRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[id]; !ok {
		return domain.ErrGoalNotFound
	}

	delete(r.s.goals, id)
	return nil
}

func (r *InMemoryGoalRepository) Archive(ctx context.Context, record *domain.ArchiveRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.goals[record.GoalID]; !ok {
		return domain.ErrGoalNotFound
	}

	rec := *record
	r.s.archive[rec.ID] = &rec
	delete(r.s.goals, record.GoalID)
	return nil
}

func (r *InMemoryGoalRepository) ListArchived(ctx context.Context, userID string) ([]*domain.ArchiveRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	records := make([]*domain.ArchiveRecord, 0)
	for _, rec := range r.s.archive {
		if rec.UserID == userID {
			c := *rec
			records = append(records, &c)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})

	return records, nil
}

func (r *InMemoryGoalRepository) ListActiveIdleSince(ctx context.Context, cutoff time.Time) ([]*domain.Goal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	goals := make([]*domain.Goal, 0)
	for _, g := range r.s.goals {
		if g.IsActive() && g.IdleSince(cutoff) {
			goals = append(goals, g.Clone())
		}
	}

	sort.Slice(goals, func(i, j int) bool {
		return goals[i].LastActivity().Before(goals[j].LastActivity())
	})

	return goals, nil
}

type InMemoryTaskRepository struct {
	s *MemoryStore
}

func (r *InMemoryTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t := *task
	r.s.tasks[t.ID] = &t
	return nil
}

func (r *InMemoryTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	task, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t := *task
	return &t, nil
}

func (r *InMemoryTaskRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tasks := make([]*domain.Task, 0)
	for _, task := range r.s.tasks {
		if task.UserID == userID {
			t := *task
			tasks = append(tasks, &t)
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	return tasks, nil
}

func (r *InMemoryTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}

	t := *task
	r.s.tasks[t.ID] = &t
	return nil
}

func (r *InMemoryTaskRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}

	delete(r.s.tasks, id)
	return nil
}

type InMemoryActivityRepository struct {
	s *MemoryStore
}

func (r *InMemoryActivityRepository) Append(ctx context.Context, event *domain.ActivityEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.appendEvent(event)
	return nil
}

func (r *InMemoryActivityRepository) ListByUserID(ctx context.Context, userID string, since time.Time) ([]*domain.ActivityEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := make([]*domain.ActivityEvent, 0)
	for _, e := range r.s.events[userID] {
		if e.OccurredAt.Before(since) {
			continue
		}
		c := *e
		events = append(events, &c)
	}
	return events, nil
}

// appendEvent keeps each user log ordered by occurrence, ties by id.
// Callers hold the write lock.
func (s *MemoryStore) appendEvent(e *domain.ActivityEvent) {
	c := *e
	log := append(s.events[c.UserID], &c)
	sort.SliceStable(log, func(i, j int) bool {
		if log[i].OccurredAt.Equal(log[j].OccurredAt) {
			return log[i].ID < log[j].ID
		}
		return log[i].OccurredAt.Before(log[j].OccurredAt)
	})
	s.events[c.UserID] = log
}

type InMemoryUserRepository struct {
	s *MemoryStore
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := r.s.byEmail[email]; exists {
		return domain.ErrEmailAlreadyExists
	}

	u := *user
	r.s.users[u.ID] = &u
	r.s.byEmail[email] = u.ID
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := *r.s.users[id]
	return &u, nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// Delete removes the account together with everything it owns.
func (r *InMemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.byEmail, strings.ToLower(user.Email))
	delete(r.s.users, id)

	for gid, g := range r.s.goals {
		if g.UserID == id {
			delete(r.s.goals, gid)
		}
	}
	for aid, a := range r.s.archive {
		if a.UserID == id {
			delete(r.s.archive, aid)
		}
	}
	for tid, task := range r.s.tasks {
		if task.UserID == id {
			delete(r.s.tasks, tid)
		}
	}
	delete(r.s.events, id)
	return nil
}

// Package memory is an in-process implementation of the repository ports,
// used by the service and HTTP tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"thinkhub/internal/model"
)

type state struct {
	users      map[string]model.User
	projects   map[int64]model.Project
	members    map[int64]model.ProjectMember
	documents  map[int64]model.Document
	milestones map[int64]model.Milestone
	tasks      map[int64]model.Task
	activities []model.Activity
}

// Store holds every table behind one lock, so each method is atomic.
type Store struct {
	mu    sync.RWMutex
	state state
	seq   int64
	now   func() time.Time
}

func New() *Store {
	return &Store{
		state: state{
			users:      map[string]model.User{},
			projects:   map[int64]model.Project{},
			members:    map[int64]model.ProjectMember{},
			documents:  map[int64]model.Document{},
			milestones: map[int64]model.Milestone{},
			tasks:      map[int64]model.Task{},
		},
		now: time.Now,
	}
}

// WithClock sets the time source for created_at columns.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) Users() *Users           { return &Users{s: s} }
func (s *Store) Projects() *Projects     { return &Projects{s: s} }
func (s *Store) Members() *Members       { return &Members{s: s} }
func (s *Store) Documents() *Documents   { return &Documents{s: s} }
func (s *Store) Milestones() *Milestones { return &Milestones{s: s} }
func (s *Store) Tasks() *Tasks           { return &Tasks{s: s} }
func (s *Store) Activities() *Activities { return &Activities{s: s} }
func (s *Store) Stats() *Stats           { return &Stats{s: s} }

func (s *Store) addMemberLocked(m *model.ProjectMember) {
	m.ID = s.nextID()
	if m.JoinedAt.IsZero() {
		m.JoinedAt = s.now().UTC()
	}
	s.state.members[m.ID] = *m
}

func (s *Store) findMemberLocked(projectID int64, userID string) (model.ProjectMember, bool) {
	for _, m := range s.state.members {
		if m.ProjectID == projectID && m.UserID == userID {
			return m, true
		}
	}
	return model.ProjectMember{}, false
}

func (s *Store) milestoneTasksLocked(milestoneID int64) []model.Task {
	var out []model.Task
	for _, t := range s.state.tasks {
		if t.InMilestone(milestoneID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

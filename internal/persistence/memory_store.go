package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/petrijr/stepform/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe implementation of Store backed
// by maps. Records are copied on the way in and out.
type InMemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]*api.Submission
	parents     map[string]*api.ParentRecord

	now func() time.Time
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		submissions: make(map[string]*api.Submission),
		parents:     make(map[string]*api.ParentRecord),
		now:         time.Now,
	}
}

// Ensure InMemoryStore implements the interfaces.
var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) CreateSubmission(ctx context.Context, sub *api.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.submissions[sub.ID]; ok {
		return ErrDuplicateSubmission
	}
	cp := sub.Clone()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	cp.UpdatedAt = cp.CreatedAt
	s.submissions[sub.ID] = cp
	return nil
}

func (s *InMemoryStore) GetSubmission(ctx context.Context, id string) (*api.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, ErrSubmissionNotFound
	}
	return sub.Clone(), nil
}

func (s *InMemoryStore) ListSubmissions(ctx context.Context, opts api.SubmissionListOptions) ([]*api.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.Submission
	for _, sub := range s.submissions {
		if !matches(sub, opts) {
			continue
		}
		result = append(result, sub.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// update runs fn against the stored record under the write lock.
func (s *InMemoryStore) update(id string, fn func(sub *api.Submission) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return ErrSubmissionNotFound
	}
	if err := fn(sub); err != nil {
		return err
	}
	sub.UpdatedAt = s.now()
	return nil
}

func (s *InMemoryStore) MergeFields(ctx context.Context, id string, fields map[string]string) error {
	return s.update(id, func(sub *api.Submission) error {
		if sub.Fields == nil {
			sub.Fields = make(map[string]string, len(fields))
		}
		for k, v := range fields {
			sub.Fields[k] = v
		}
		return nil
	})
}

func (s *InMemoryStore) SetTitle(ctx context.Context, id, title string) error {
	return s.update(id, func(sub *api.Submission) error {
		sub.Title = title
		return nil
	})
}

func (s *InMemoryStore) SetToken(ctx context.Context, id, token string) error {
	return s.update(id, func(sub *api.Submission) error {
		sub.Token = token
		return nil
	})
}

func (s *InMemoryStore) SetStatus(ctx context.Context, id string, status api.Status) error {
	return s.update(id, func(sub *api.Submission) error {
		sub.Status = status
		return nil
	})
}

func (s *InMemoryStore) AdvanceStep(ctx context.Context, id string, step int) error {
	return s.update(id, func(sub *api.Submission) error {
		if err := checkAdvance(sub.CurrentStep, !sub.CompletedAt.IsZero(), step); err != nil {
			return err
		}
		if sub.CurrentStep == step {
			sub.CurrentStep = step + 1
		}
		sub.Incomplete = true
		return nil
	})
}

func (s *InMemoryStore) CompleteSubmission(ctx context.Context, id string, step int, at time.Time) error {
	return s.update(id, func(sub *api.Submission) error {
		if err := checkComplete(sub.CurrentStep, !sub.CompletedAt.IsZero(), step); err != nil {
			return err
		}
		sub.Incomplete = false
		sub.CompletedAt = at
		return nil
	})
}

func (s *InMemoryStore) RecordCompletion(ctx context.Context, parentID, submissionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.parents[parentID] = &api.ParentRecord{
		ID:               parentID,
		RecentSubmission: submissionID,
		LastCompletedAt:  at,
	}
	return nil
}

func (s *InMemoryStore) GetParent(ctx context.Context, parentID string) (*api.ParentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parents[parentID]
	if !ok {
		return nil, ErrParentNotFound
	}
	cp := *p
	return &cp, nil
}
